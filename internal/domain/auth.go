package domain

// Role is carried in access tokens and gates collaborator-only endpoints.
type Role string

const (
	// RoleOperator is a person working tickets through the UI.
	RoleOperator Role = "OPERATOR"
	// RoleSupervisor is a person overseeing other operators. It receives the same notifications as an operator.
	RoleSupervisor Role = "SUPERVISOR"
	// RoleService is the case-management backend reporting saves to this service.
	RoleService Role = "SERVICE"
)
