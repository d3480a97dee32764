package dto

// ─── Filter / List ──────────────────────────────────────────────────────────

type PatientFilter struct {
	BranchID string `form:"branch_id" validate:"omitempty,uuid"`
	Insurer  string `form:"insurer"`
	Search   string `form:"search"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type PatientListResponse struct {
	Data  []PatientResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreatePatientRequest struct {
	FirstName   string  `json:"first_name"    validate:"required"`
	LastName    string  `json:"last_name"     validate:"required"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"         validate:"omitempty,email"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      *string `json:"gender"        validate:"omitempty,oneof=male female other"`
	BranchID    string  `json:"branch_id"     validate:"required,uuid"`
	Insurer     *string `json:"insurer"`
	MemberID    *string `json:"member_id"`
}

// UpdatePatientRequest carries only the fields that may legally change.
// FileNumber and BranchID are fixed at registration.
type UpdatePatientRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	Insurer   *string `json:"insurer"`
	MemberID  *string `json:"member_id"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PatientResponse struct {
	ID          string  `json:"id"`
	FileNumber  string  `json:"file_number"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	BranchID    string  `json:"branch_id"`
	Insurer     *string `json:"insurer,omitempty"`
	MemberID    *string `json:"member_id,omitempty"`
	Active      bool    `json:"active"`
	CreatedAt   string  `json:"created_at"`
}
