package server

import "bizdesk/internal/domain"

// Request payloads

type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username" minLength:"3"`
	Email    string `json:"email" format:"email"`
	Password string `json:"password" minLength:"8"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" format:"email"`
	OTP   string `json:"otp" pattern:"^[0-9]{6}$"`
}

type ResendOTPRequest struct {
	Email string `json:"email" format:"email"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" format:"email"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Bio   *string `json:"bio,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

type RepresentativeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" format:"email"`
	Phone string `json:"phone"`
	Title string `json:"title,omitempty"`
}

type PublicDetailsRequest struct {
	DisplayName string `json:"display_name"`
	Website     string `json:"website,omitempty"`
	SupportMail string `json:"support_email,omitempty"`
	About       string `json:"about,omitempty"`
}

type CreateCompanyRequest struct {
	Name           string                `json:"name"`
	BusinessType   string                `json:"business_type" enum:"retail,wholesale,manufacturing,services"`
	TaxID          string                `json:"tax_id,omitempty"`
	Address        AddressRequest        `json:"address"`
	Representative RepresentativeRequest `json:"representative"`
	Public         PublicDetailsRequest  `json:"public_details"`
}

// Response payloads

type UserResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role" enum:"owner,manager,staff"`
	Bio         string `json:"bio,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Verified    bool   `json:"verified"`
	LastLoginAt string `json:"last_login_at,omitempty" format:"date-time"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type LoginResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	OTPSent bool   `json:"otp_sent"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CompanyResponse struct {
	ID             string                `json:"id"`
	OwnerID        string                `json:"owner_id"`
	Name           string                `json:"name"`
	BusinessType   string                `json:"business_type" enum:"retail,wholesale,manufacturing,services"`
	TaxID          string                `json:"tax_id,omitempty"`
	Address        AddressRequest        `json:"address"`
	Representative RepresentativeRequest `json:"representative"`
	Public         PublicDetailsRequest  `json:"public_details"`
	CreatedAt      string                `json:"created_at" format:"date-time"`
}

type paginatedCompanies struct {
	Items []CompanyResponse `json:"items"`
}

// Conversion helpers

func userResponse(u domain.User) UserResponse {
	return UserResponse(u)
}

func companyResponse(c domain.Company) CompanyResponse {
	return CompanyResponse{
		ID:           c.ID,
		OwnerID:      c.OwnerID,
		Name:         c.Name,
		BusinessType: c.BusinessType,
		TaxID:        c.TaxID,
		Address: AddressRequest{
			Street:     c.Address.Street,
			City:       c.Address.City,
			State:      c.Address.State,
			PostalCode: c.Address.PostalCode,
			Country:    c.Address.Country,
		},
		Representative: RepresentativeRequest{
			Name:  c.Representative.Name,
			Email: c.Representative.Email,
			Phone: c.Representative.Phone,
			Title: c.Representative.Title,
		},
		Public: PublicDetailsRequest{
			DisplayName: c.Public.DisplayName,
			Website:     c.Public.Website,
			SupportMail: c.Public.SupportMail,
			About:       c.Public.About,
		},
		CreatedAt: c.CreatedAt,
	}
}

func companyFromRequest(req CreateCompanyRequest) domain.Company {
	return domain.Company{
		Name:         req.Name,
		BusinessType: req.BusinessType,
		TaxID:        req.TaxID,
		Address: domain.Address{
			Street:     req.Address.Street,
			City:       req.Address.City,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		},
		Representative: domain.Representative{
			Name:  req.Representative.Name,
			Email: req.Representative.Email,
			Phone: req.Representative.Phone,
			Title: req.Representative.Title,
		},
		Public: domain.PublicDetails{
			DisplayName: req.Public.DisplayName,
			Website:     req.Public.Website,
			SupportMail: req.Public.SupportMail,
			About:       req.Public.About,
		},
	}
}
