package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-router/internal/api/dto"
	"github.com/spec-kit/lead-router/internal/domain"
	"github.com/spec-kit/lead-router/internal/service"
	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

// AgentsHandler exposes agent roster endpoints.
type AgentsHandler struct {
	agents *service.AgentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agents *service.AgentService) *AgentsHandler {
	return &AgentsHandler{agents: agents}
}

// Create POST /orgs/:orgId/agents.
func (h *AgentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	agent, err := h.agents.Create(c.Context(), c.Params("orgId"), service.AgentCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Capacity: req.Capacity,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": agentResponse(agent)})
}

// ListByOrganization GET /orgs/:orgId/agents.
func (h *AgentsHandler) ListByOrganization(c *fiber.Ctx) error {
	agents, err := h.agents.ListByOrganization(c.Context(), c.Params("orgId"))
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, agentResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetAvailability PATCH /agents/:id/availability.
func (h *AgentsHandler) SetAvailability(c *fiber.Ctx) error {
	var req dto.SetAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	agent, err := h.agents.SetAvailability(c.Context(), c.Params("id"), *req.Available)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agentResponse(agent)})
}

func agentResponse(agent *domain.Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:              agent.ID,
		OrganizationID:  agent.OrganizationID,
		Name:            agent.Name,
		Email:           agent.Email,
		Phone:           agent.Phone,
		Available:       agent.Available,
		OpenAssignments: agent.OpenAssignments,
		Capacity:        agent.Capacity,
		HasCapacity:     agent.HasCapacity(),
		LastAssignedAt:  agent.LastAssignedAt,
	}
}
