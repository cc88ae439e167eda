package domain

type User struct {
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

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

type Representative struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Title string `json:"title,omitempty"`
}

type PublicDetails struct {
	DisplayName string `json:"display_name"`
	Website     string `json:"website,omitempty"`
	SupportMail string `json:"support_email,omitempty"`
	About       string `json:"about,omitempty"`
}

type Company struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"owner_id"`
	Name           string         `json:"name"`
	BusinessType   string         `json:"business_type" enum:"retail,wholesale,manufacturing,services"`
	TaxID          string         `json:"tax_id,omitempty"`
	Address        Address        `json:"address"`
	Representative Representative `json:"representative"`
	Public         PublicDetails  `json:"public_details"`
	CreatedAt      string         `json:"created_at" format:"date-time"`
}

// OTPCode is a pending one-time code for an email address.
type OTPCode struct {
	Email     string `json:"email"`
	Code      string `json:"code"`
	ExpiresAt string `json:"expires_at" format:"date-time"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
