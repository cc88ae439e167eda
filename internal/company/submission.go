// Package company assembles the wizard's flat form bag into the backend's
// nested company-creation shape and performs the one-shot submit.
package company

import (
	"context"
	"errors"
	"sync"

	"bizdesk/internal/domain"
	"bizdesk/internal/validation"
	bizdesksdk "bizdesk/sdk/go"
)

// ErrSubmitInFlight rejects a second submit while one is outstanding.
// Duplicate requests are refused, never queued or cancelled mid-flight.
var ErrSubmitInFlight = errors.New("submission already in flight")

// ReviewStep is the terminal wizard step from which submission happens.
const ReviewStep = "review"

// BuildRequest projects the flat wizard fields into the nested request shape.
// It is a pure read-only transform: calling it twice with the same bag yields
// the same request, and the bag is never modified.
func BuildRequest(fields map[string]string) bizdesksdk.CreateCompanyRequest {
	return bizdesksdk.CreateCompanyRequest{
		Name:         fields["company_name"],
		BusinessType: fields["business_type"],
		TaxID:        fields["tax_id"],
		Address: bizdesksdk.Address{
			Street:     fields["street"],
			City:       fields["city"],
			State:      fields["state"],
			PostalCode: fields["postal_code"],
			Country:    fields["country"],
		},
		Representative: bizdesksdk.Representative{
			Name:  fields["rep_name"],
			Email: fields["rep_email"],
			Phone: fields["rep_phone"],
			Title: fields["rep_title"],
		},
		Public: bizdesksdk.PublicDetails{
			DisplayName: fields["display_name"],
			Website:     fields["website"],
			SupportMail: fields["support_email"],
			About:       fields["about"],
		},
	}
}

// Submission performs the terminal-step create call.
type Submission struct {
	client *bizdesksdk.Client
	rules  validation.Rules

	mu       sync.Mutex
	inFlight bool
}

// NewSubmission wires a submission to its client and rules table.
func NewSubmission(client *bizdesksdk.Client, rules validation.Rules) *Submission {
	return &Submission{client: client, rules: rules}
}

// InFlight reports whether a submit is outstanding.
func (s *Submission) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Submit validates the review step, builds the request and posts it once.
// On failure the caller's form bag is untouched and a retry with the same bag
// produces an identical request. Overlapping submits are rejected with
// ErrSubmitInFlight.
func (s *Submission) Submit(ctx context.Context, fields map[string]string) (domain.Company, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return domain.Company{}, ErrSubmitInFlight
	}
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	if res := s.rules.Validate(ReviewStep, fields); !res.OK {
		return domain.Company{}, errors.New(res.Errors[0].Message)
	}
	created, err := s.client.CreateCompany(ctx, BuildRequest(fields))
	if err != nil {
		return domain.Company{}, err
	}
	return companyFromAPI(created), nil
}

func companyFromAPI(c bizdesksdk.Company) domain.Company {
	return domain.Company{
		ID:           c.ID,
		OwnerID:      c.OwnerID,
		Name:         c.Name,
		BusinessType: c.BusinessType,
		TaxID:        c.TaxID,
		Address: domain.Address{
			Street:     c.Address.Street,
			City:       c.Address.City,
			State:      c.Address.State,
			PostalCode: c.Address.PostalCode,
			Country:    c.Address.Country,
		},
		Representative: domain.Representative{
			Name:  c.Representative.Name,
			Email: c.Representative.Email,
			Phone: c.Representative.Phone,
			Title: c.Representative.Title,
		},
		Public: domain.PublicDetails{
			DisplayName: c.Public.DisplayName,
			Website:     c.Public.Website,
			SupportMail: c.Public.SupportMail,
			About:       c.Public.About,
		},
		CreatedAt: c.CreatedAt,
	}
}
