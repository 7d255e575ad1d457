package request

type RegisterRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=50"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Phone    *string    `json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	Client   ClientInfo `json:"-"`
}

type LoginRequest struct {
	Username string     `json:"username" validate:"required"`
	Password string     `json:"password" validate:"required,min=6"`
	Client   ClientInfo `json:"-"`
}

// ClientInfo is filled from the HTTP request, never from the body, and is
// stored on the session it opens.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

type UserFilterRequest struct {
	PaginatedRequest
	Role *string `json:"role,omitempty" validate:"omitempty,oneof=admin staff lab_technician xray_technician local_admin user"`
}

type AssignRoleRequest struct {
	Role        string  `json:"role" validate:"required,oneof=admin staff lab_technician xray_technician local_admin user"`
	AssignedLab *string `json:"assigned_lab,omitempty" validate:"omitempty,uuid"`
}
