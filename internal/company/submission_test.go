package company_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"bizdesk/internal/company"
	"bizdesk/internal/validation"
	bizdesksdk "bizdesk/sdk/go"
)

func sampleFields() map[string]string {
	return map[string]string{
		"business_type": "retail",
		"company_name":  "Acme Retail",
		"tax_id":        "TAX-42",
		"street":        "1 Main St",
		"city":          "Springfield",
		"state":         "OR",
		"postal_code":   "97400",
		"country":       "US",
		"rep_name":      "Jo Smith",
		"rep_email":     "jo@acme.example",
		"rep_phone":     "+1 555 0100 200",
		"rep_title":     "CEO",
		"display_name":  "Acme",
		"website":       "https://acme.example",
		"support_email": "help@acme.example",
		"about":         "General store",
	}
}

func TestBuildRequestProjection(t *testing.T) {
	fields := sampleFields()
	req := company.BuildRequest(fields)
	if req.Name != "Acme Retail" || req.BusinessType != "retail" || req.TaxID != "TAX-42" {
		t.Fatalf("top-level projection wrong: %+v", req)
	}
	if req.Address.Street != "1 Main St" || req.Address.Country != "US" {
		t.Fatalf("address projection wrong: %+v", req.Address)
	}
	if req.Representative.Email != "jo@acme.example" || req.Representative.Title != "CEO" {
		t.Fatalf("representative projection wrong: %+v", req.Representative)
	}
	if req.Public.DisplayName != "Acme" || req.Public.SupportMail != "help@acme.example" {
		t.Fatalf("public projection wrong: %+v", req.Public)
	}
}

func TestBuildRequestIsPure(t *testing.T) {
	fields := sampleFields()
	before := make(map[string]string, len(fields))
	for k, v := range fields {
		before[k] = v
	}
	first := company.BuildRequest(fields)
	second := company.BuildRequest(fields)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same bag produced different requests")
	}
	if !reflect.DeepEqual(fields, before) {
		t.Fatalf("BuildRequest mutated the bag")
	}
}

func TestBuildRequestMissingFieldsStayEmpty(t *testing.T) {
	req := company.BuildRequest(map[string]string{"company_name": "Solo"})
	if req.Name != "Solo" || req.TaxID != "" || req.Address.City != "" || req.Public.Website != "" {
		t.Fatalf("missing fields must project to empty strings: %+v", req)
	}
}

func TestSubmitSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/company/create" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req bizdesksdk.CreateCompanyRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(bizdesksdk.Company{
			ID:             "c-1",
			OwnerID:        "u-1",
			Name:           req.Name,
			BusinessType:   req.BusinessType,
			Address:        req.Address,
			Representative: req.Representative,
			Public:         req.Public,
			CreatedAt:      "2026-01-01T00:00:00Z",
		})
	}))
	defer srv.Close()

	sub := company.NewSubmission(bizdesksdk.New(srv.URL), validation.Default())
	created, err := sub.Submit(context.Background(), sampleFields())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if created.ID != "c-1" || created.Name != "Acme Retail" || created.Address.City != "Springfield" {
		t.Fatalf("bad created company: %+v", created)
	}
	if sub.InFlight() {
		t.Fatalf("flag must reset after completion")
	}
}

func TestSubmitFailureKeepsBagUsable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"internal_error","message":"internal error"}}`))
	}))
	defer srv.Close()

	sub := company.NewSubmission(bizdesksdk.New(srv.URL), validation.Default())
	fields := sampleFields()
	before := company.BuildRequest(fields)
	if _, err := sub.Submit(context.Background(), fields); err == nil {
		t.Fatalf("expected failure")
	}
	if sub.InFlight() {
		t.Fatalf("flag must reset after failure")
	}
	// a retry with the unchanged bag produces an identical request
	if !reflect.DeepEqual(company.BuildRequest(fields), before) {
		t.Fatalf("failure corrupted the bag")
	}
}

func TestSubmitSingleFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(bizdesksdk.Company{ID: "c-1"})
	}))
	defer srv.Close()

	sub := company.NewSubmission(bizdesksdk.New(srv.URL), validation.Default())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sub.Submit(context.Background(), sampleFields())
	}()
	<-entered
	if !sub.InFlight() {
		t.Fatalf("expected in-flight submit")
	}
	if _, err := sub.Submit(context.Background(), sampleFields()); err != company.ErrSubmitInFlight {
		t.Fatalf("overlapping submit: %v", err)
	}
	close(release)
	wg.Wait()
	if sub.InFlight() {
		t.Fatalf("flag stuck after first submit finished")
	}
}
