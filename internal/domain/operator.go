package domain

// OperatorRole scopes what an authenticated operator may do. Operators are
// provisioned in the identity system that issues tokens, not stored here.
type OperatorRole string

const (
	OperatorRoleAgent OperatorRole = "AGENT"
	OperatorRoleAdmin OperatorRole = "ADMIN"
)
