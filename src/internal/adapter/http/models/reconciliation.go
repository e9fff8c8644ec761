package models

import (
	"errors"
	"strings"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
)

type ProposeMatchesRequest struct {
	TenantID   string `json:"tenantId"`
	MovementID string `json:"movementId"`
}

func (r ProposeMatchesRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.TenantID) == "" {
		errs = append(errs, "tenantId is required")
	}
	if strings.TrimSpace(r.MovementID) == "" {
		errs = append(errs, "movementId is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type MatchCandidateResponse struct {
	MovementID     string   `json:"movementId"`
	ReceivableID   string   `json:"receivableId"`
	Confidence     int      `json:"confidence"`
	Classification string   `json:"classification"`
	AmountPoints   int      `json:"amountPoints"`
	DatePoints     int      `json:"datePoints"`
	IdentityPoints int      `json:"identityPoints"`
	DateDistance   int      `json:"dateDistanceDays"`
	Notes          []string `json:"notes,omitempty"`
}

type ProposeMatchesResponse struct {
	Candidates []MatchCandidateResponse `json:"candidates"`
}

func NewProposeMatchesResponse(candidates []domain.MatchCandidate) ProposeMatchesResponse {
	out := ProposeMatchesResponse{Candidates: make([]MatchCandidateResponse, 0, len(candidates))}
	for _, c := range candidates {
		out.Candidates = append(out.Candidates, MatchCandidateResponse{
			MovementID:     c.MovementID,
			ReceivableID:   c.ReceivableID,
			Confidence:     c.Confidence,
			Classification: string(c.Classification),
			AmountPoints:   c.AmountPoints,
			DatePoints:     c.DatePoints,
			IdentityPoints: c.IdentityPoints,
			DateDistance:   c.DateDistance,
			Notes:          c.Notes,
		})
	}
	return out
}

type RejectMovementRequest struct {
	TenantID   string `json:"tenantId"`
	MovementID string `json:"movementId"`
}

func (r RejectMovementRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.TenantID) == "" {
		errs = append(errs, "tenantId is required")
	}
	if strings.TrimSpace(r.MovementID) == "" {
		errs = append(errs, "movementId is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type MovementResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Matched  bool   `json:"matched"`
	Reviewed bool   `json:"reviewed"`
}

func NewMovementResponse(movement domain.BankMovement) MovementResponse {
	return MovementResponse{
		ID:       movement.ID,
		Status:   string(movement.Status),
		Matched:  movement.Matched,
		Reviewed: movement.Reviewed,
	}
}

type SelectionPayload struct {
	ReceivableID string `json:"receivableId"`
	Amount       string `json:"amount"`
}

func (p SelectionPayload) toSelection() (service_interfaces.Selection, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(p.Amount))
	if err != nil {
		return service_interfaces.Selection{}, errors.New("amount must be a decimal number")
	}
	return service_interfaces.Selection{ReceivableID: p.ReceivableID, Amount: amount}, nil
}

type ResolveSplitRequest struct {
	TenantID   string             `json:"tenantId"`
	MovementID string             `json:"movementId"`
	Selections []SelectionPayload `json:"selections"`
}

func (r ResolveSplitRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.TenantID) == "" {
		errs = append(errs, "tenantId is required")
	}
	if strings.TrimSpace(r.MovementID) == "" {
		errs = append(errs, "movementId is required")
	}
	if len(r.Selections) == 0 {
		errs = append(errs, "selections must not be empty")
	}
	for _, sel := range r.Selections {
		if strings.TrimSpace(sel.ReceivableID) == "" {
			errs = append(errs, "every selection needs a receivableId")
			break
		}
	}
	for _, sel := range r.Selections {
		if _, err := decimal.NewFromString(strings.TrimSpace(sel.Amount)); err != nil {
			errs = append(errs, "every selection amount must be a decimal number")
			break
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (r ResolveSplitRequest) ToSelections() ([]service_interfaces.Selection, error) {
	out := make([]service_interfaces.Selection, 0, len(r.Selections))
	for _, payload := range r.Selections {
		selection, err := payload.toSelection()
		if err != nil {
			return nil, err
		}
		out = append(out, selection)
	}
	return out, nil
}

type AllocationResponse struct {
	ID           string `json:"id"`
	ReceivableID string `json:"receivableId"`
	Amount       string `json:"amount"`
}

type AllocationSetResponse struct {
	MovementID  string               `json:"movementId"`
	Total       string               `json:"total"`
	Allocations []AllocationResponse `json:"allocations"`
}

func NewAllocationSetResponse(set domain.AllocationSet) AllocationSetResponse {
	out := AllocationSetResponse{
		MovementID:  set.MovementID,
		Total:       set.Total().StringFixed(2),
		Allocations: make([]AllocationResponse, 0, len(set.Allocations)),
	}
	for _, a := range set.Allocations {
		out.Allocations = append(out.Allocations, AllocationResponse{
			ID:           a.ID,
			ReceivableID: a.ReceivableID,
			Amount:       a.Amount.StringFixed(2),
		})
	}
	return out
}

type MovementSelections struct {
	MovementID string             `json:"movementId"`
	Selections []SelectionPayload `json:"selections"`
}

type ResolveSettlementDayRequest struct {
	TenantID  string               `json:"tenantId"`
	Day       string               `json:"day"`
	Movements []MovementSelections `json:"movements"`
}

func (r ResolveSettlementDayRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.TenantID) == "" {
		errs = append(errs, "tenantId is required")
	}
	if strings.TrimSpace(r.Day) == "" {
		errs = append(errs, "day is required")
	} else if _, err := time.Parse("2006-01-02", strings.TrimSpace(r.Day)); err != nil {
		errs = append(errs, "day must be in YYYY-MM-DD format")
	}
	if len(r.Movements) == 0 {
		errs = append(errs, "movements must not be empty")
	}
	for _, movement := range r.Movements {
		if strings.TrimSpace(movement.MovementID) == "" {
			errs = append(errs, "every movement needs a movementId")
			break
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (r ResolveSettlementDayRequest) ToSelections() (time.Time, map[string][]service_interfaces.Selection, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(r.Day))
	if err != nil {
		return time.Time{}, nil, errors.New("day must be in YYYY-MM-DD format")
	}

	selections := make(map[string][]service_interfaces.Selection, len(r.Movements))
	for _, movement := range r.Movements {
		converted := make([]service_interfaces.Selection, 0, len(movement.Selections))
		for _, payload := range movement.Selections {
			selection, err := payload.toSelection()
			if err != nil {
				return time.Time{}, nil, err
			}
			converted = append(converted, selection)
		}
		selections[movement.MovementID] = converted
	}
	return day, selections, nil
}

type SettlementDayResponse struct {
	Day  string                  `json:"day"`
	Sets []AllocationSetResponse `json:"sets"`
}
