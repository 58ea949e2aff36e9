package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-router/internal/api/dto"
	"github.com/spec-kit/lead-router/internal/domain"
	"github.com/spec-kit/lead-router/internal/service"
	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

// LeadsHandler exposes lead intake and lifecycle endpoints.
type LeadsHandler struct {
	leads       *service.LeadService
	assignments *service.AssignmentService
	escalations *service.EscalationService
	stats       *service.StatsService
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(leads *service.LeadService, assignments *service.AssignmentService, escalations *service.EscalationService, stats *service.StatsService) *LeadsHandler {
	return &LeadsHandler{leads: leads, assignments: assignments, escalations: escalations, stats: stats}
}

// Intake POST /webhooks/leads/:orgId.
func (h *LeadsHandler) Intake(c *fiber.Ctx) error {
	var req dto.IntakeLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	// the full request body is kept verbatim for audit
	var raw map[string]any
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	lead, err := h.leads.Intake(c.Context(), c.Params("orgId"), service.IntakeInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Source:      req.Source,
		Temperature: req.Temperature,
		CRMRef:      req.CRMRef,
		RawPayload:  raw,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": leadResponse(lead)})
}

// Assign POST /leads/:id/assign.
func (h *LeadsHandler) Assign(c *fiber.Ctx) error {
	result, err := h.assignments.Assign(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AssignLeadResponse{
		Lead:       leadResponse(result.Lead),
		Agent:      agentResponse(result.Agent),
		Assignment: assignmentResponse(result.Assignment),
	}})
}

// Contact POST /leads/:id/contact.
func (h *LeadsHandler) Contact(c *fiber.Ctx) error {
	result, err := h.leads.MarkContacted(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ContactLeadResponse{
		Lead:        leadResponse(result.Lead),
		ContactedAt: result.ContactedAt,
	}})
}

// Escalate POST /leads/:id/escalate.
func (h *LeadsHandler) Escalate(c *fiber.Ctx) error {
	var req dto.EscalateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	escalation, err := h.escalations.Escalate(c.Context(), c.Params("id"), req.Tier, req.Reason)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": escalationResponse(escalation)})
}

// Close POST /leads/:id/close.
func (h *LeadsHandler) Close(c *fiber.Ctx) error {
	lead, err := h.leads.Close(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadResponse(lead)})
}

// Timeline GET /leads/:id/events.
func (h *LeadsHandler) Timeline(c *fiber.Ctx) error {
	result, err := h.leads.Timeline(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	response := dto.TimelineResponse{
		Events:      make([]dto.TimelineEntry, 0, len(result.Events)),
		Assignments: make([]dto.AssignmentResponse, 0, len(result.Assignments)),
		Escalations: make([]dto.EscalationResponse, 0, len(result.Escalations)),
	}
	for i := range result.Events {
		response.Events = append(response.Events, timelineEntry(&result.Events[i]))
	}
	for i := range result.Assignments {
		response.Assignments = append(response.Assignments, assignmentResponse(&result.Assignments[i]))
	}
	for i := range result.Escalations {
		response.Escalations = append(response.Escalations, escalationResponse(&result.Escalations[i]))
	}
	return c.JSON(fiber.Map{"data": response})
}

// List GET /orgs/:orgId/leads.
func (h *LeadsHandler) List(c *fiber.Ctx) error {
	input := service.ListInput{}
	for _, status := range strings.Split(c.Query("status"), ",") {
		if status = strings.TrimSpace(status); status != "" {
			input.Statuses = append(input.Statuses, domain.LeadStatus(status))
		}
	}
	var err error
	if input.Limit, err = queryInt(c, "limit"); err != nil {
		return err
	}
	if input.Offset, err = queryInt(c, "offset"); err != nil {
		return err
	}

	leads, err := h.leads.List(c.Context(), c.Params("orgId"), input)
	if err != nil {
		return err
	}
	items := make([]dto.LeadResponse, 0, len(leads))
	for i := range leads {
		items = append(items, leadResponse(&leads[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func queryInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name+" must be an integer", map[string]any{name: raw})
	}
	return value, nil
}

// ListOverdue GET /orgs/:orgId/leads/overdue.
func (h *LeadsHandler) ListOverdue(c *fiber.Ctx) error {
	leads, err := h.escalations.ListOverdue(c.Context(), c.Params("orgId"))
	if err != nil {
		return err
	}
	items := make([]dto.LeadResponse, 0, len(leads))
	for i := range leads {
		items = append(items, leadResponse(&leads[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Stats GET /orgs/:orgId/stats.
func (h *LeadsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.GetStats(c.Context(), c.Params("orgId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.OrgStatsResponse{
		TotalLeads:             stats.TotalLeads,
		ByStatus:               stats.ByStatus,
		AvgResponseTimeMinutes: stats.AvgResponseTimeMinutes,
	}})
}

func leadResponse(lead *domain.Lead) dto.LeadResponse {
	return dto.LeadResponse{
		ID:                  lead.ID,
		OrganizationID:      lead.OrganizationID,
		FirstName:           lead.FirstName,
		LastName:            lead.LastName,
		Email:               lead.Email,
		Phone:               lead.Phone,
		Source:              lead.Source,
		Temperature:         lead.Temperature,
		Status:              lead.Status,
		SLADeadline:         lead.SLADeadline,
		ResponseTimeSeconds: lead.ResponseTimeSeconds,
		CRMRef:              lead.CRMRef,
		CreatedAt:           lead.CreatedAt,
		UpdatedAt:           lead.UpdatedAt,
	}
}

func assignmentResponse(assignment *domain.Assignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:          assignment.ID,
		LeadID:      assignment.LeadID,
		AgentID:     assignment.AgentID,
		AssignedAt:  assignment.AssignedAt,
		SLADeadline: assignment.SLADeadline,
		ReleasedAt:  assignment.ReleasedAt,
	}
}

func escalationResponse(escalation *domain.Escalation) dto.EscalationResponse {
	return dto.EscalationResponse{
		ID:        escalation.ID,
		LeadID:    escalation.LeadID,
		Tier:      escalation.Tier,
		Reason:    escalation.Reason,
		CreatedAt: escalation.CreatedAt,
	}
}

func timelineEntry(event *domain.LeadEvent) dto.TimelineEntry {
	return dto.TimelineEntry{
		ID:        event.ID,
		Type:      event.Type,
		Data:      event.Data,
		CreatedAt: event.CreatedAt,
	}
}
