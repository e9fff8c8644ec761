package models

import (
	"errors"
	"strings"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/usecase/service_interfaces"
)

type VerifyRequest struct {
	TenantID string `json:"tenantId"`
	From     string `json:"from"`
	To       string `json:"to"`
}

func (r VerifyRequest) Validate() error {
	return validatePeriod(r.TenantID, r.From, r.To)
}

func (r VerifyRequest) Period() (time.Time, time.Time, error) {
	return parsePeriod(r.From, r.To)
}

type ClosePeriodRequest struct {
	TenantID string `json:"tenantId"`
	From     string `json:"from"`
	To       string `json:"to"`
	Actor    string `json:"actor"`
	Force    bool   `json:"force"`
}

func (r ClosePeriodRequest) Validate() error {
	if err := validatePeriod(r.TenantID, r.From, r.To); err != nil {
		return err
	}
	if strings.TrimSpace(r.Actor) == "" {
		return errors.New("actor is required")
	}
	return nil
}

func (r ClosePeriodRequest) Period() (time.Time, time.Time, error) {
	return parsePeriod(r.From, r.To)
}

func validatePeriod(tenantID, from, to string) error {
	var errs []string

	if strings.TrimSpace(tenantID) == "" {
		errs = append(errs, "tenantId is required")
	}
	errs = append(errs, validateDate("from", from)...)
	errs = append(errs, validateDate("to", to)...)
	if strings.TrimSpace(from) == "" {
		errs = append(errs, "from is required")
	}
	if strings.TrimSpace(to) == "" {
		errs = append(errs, "to is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func parsePeriod(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", strings.TrimSpace(from))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("from must be in YYYY-MM-DD format")
	}
	end, err := time.Parse("2006-01-02", strings.TrimSpace(to))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("to must be in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("to must not precede from")
	}
	return start, end, nil
}

type DiscrepancyResponse struct {
	Check       string `json:"check"`
	AccountCode string `json:"accountCode,omitempty"`
	Amount      string `json:"amount"`
	Detail      string `json:"detail"`
}

type VerificationResponse struct {
	Balanced      bool                  `json:"balanced"`
	Discrepancies []DiscrepancyResponse `json:"discrepancies"`
}

func NewVerificationResponse(report service_interfaces.VerificationReport) VerificationResponse {
	out := VerificationResponse{
		Balanced:      report.Balanced,
		Discrepancies: make([]DiscrepancyResponse, 0, len(report.Discrepancies)),
	}
	for _, d := range report.Discrepancies {
		out.Discrepancies = append(out.Discrepancies, DiscrepancyResponse{
			Check:       d.Check,
			AccountCode: d.AccountCode,
			Amount:      d.Amount.StringFixed(2),
			Detail:      d.Detail,
		})
	}
	return out
}

type CleanupOrphansRequest struct {
	TenantID string `json:"tenantId"`
}

func (r CleanupOrphansRequest) Validate() error {
	if strings.TrimSpace(r.TenantID) == "" {
		return errors.New("tenantId is required")
	}
	return nil
}

type CleanupOrphansResponse struct {
	Repaired int `json:"repaired"`
}
