package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

// MatchingConfig carries the thresholds that were scattered across the
// legacy call sites. The floor is exclusive: candidates scoring at or below
// it are omitted from proposals.
type MatchingConfig struct {
	AcceptanceFloor int
	CloseThreshold  int
	ExactThreshold  int
}

type MatchingService struct {
	cfg            MatchingConfig
	movementRepo   repo_interfaces.MovementRepository
	receivableRepo repo_interfaces.ReceivableRepository
}

func NewMatchingService(cfg MatchingConfig, movementRepo repo_interfaces.MovementRepository, receivableRepo repo_interfaces.ReceivableRepository) *MatchingService {
	return &MatchingService{
		cfg:            cfg,
		movementRepo:   movementRepo,
		receivableRepo: receivableRepo,
	}
}

// ProposeForMovement loads the movement and the tenant's open receivables
// and scores them. When at least one candidate clears the floor, an
// unmatched movement advances to Proposed.
func (s *MatchingService) ProposeForMovement(ctx context.Context, tenantID, movementID string, includeBelowFloor bool) ([]domain.MatchCandidate, error) {
	movement, err := s.movementRepo.GetByID(ctx, tenantID, movementID)
	if err != nil {
		return nil, fmt.Errorf("load movement %q: %w", movementID, err)
	}

	pool, err := s.receivableRepo.ListOpen(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load open receivables: %w", err)
	}

	accepted := s.ProposeMatches(ctx, movement, pool)
	if len(accepted) > 0 && movement.Status == domain.MovementStatusUnmatched {
		movement.Status = domain.MovementStatusProposed
		if _, err := s.movementRepo.Update(ctx, movement); err != nil {
			return nil, fmt.Errorf("advance movement %q to proposed: %w", movementID, err)
		}
	}

	if includeBelowFloor {
		return s.ProposeAll(ctx, movement, pool), nil
	}
	return accepted, nil
}

// Reject closes a movement whose candidates the operator declined. The
// movement stays on file, flagged reviewed, and leaves the matching pool.
func (s *MatchingService) Reject(ctx context.Context, tenantID, movementID string) (domain.BankMovement, error) {
	movement, err := s.movementRepo.GetByID(ctx, tenantID, movementID)
	if err != nil {
		return domain.BankMovement{}, fmt.Errorf("load movement %q: %w", movementID, err)
	}
	if !movement.CanTransition(domain.MovementStatusRejected) {
		return domain.BankMovement{}, domain.ValidationError{
			Rule:   domain.RuleInvalidState,
			Detail: fmt.Sprintf("movement %s is %s and cannot be rejected", movementID, movement.Status),
		}
	}

	movement.Status = domain.MovementStatusRejected
	movement.Reviewed = true
	updated, err := s.movementRepo.Update(ctx, movement)
	if err != nil {
		return domain.BankMovement{}, fmt.Errorf("reject movement %q: %w", movementID, err)
	}

	logger.Info("movement rejected", logger.Fields{
		"tenantId":   tenantID,
		"movementId": movementID,
	})
	return updated, nil
}

// amountBands maps the percentage difference between movement and
// receivable amounts to signal points, tried in order. Keeping the bands in
// a table lets each signal be tested in isolation.
var amountBands = []struct {
	maxPct int64 // inclusive upper bound, percent
	points int
}{
	{maxPct: 2, points: 45},
	{maxPct: 5, points: 35},
	{maxPct: 10, points: 20},
}

var dateBands = []struct {
	maxDays int
	points  int
	noted   bool
}{
	{maxDays: 2, points: 30, noted: false},
	{maxDays: 7, points: 20, noted: true},
	{maxDays: 30, points: 10, noted: true},
}

const (
	amountSignalMax   = 50
	identitySignalMax = 20
	minTokenLength    = 3 // identity tokens must be longer than this
)

// ProposeMatches scores the movement against every receivable in the pool
// and returns the candidates above the acceptance floor, highest confidence
// first. Ties break by nearest date, then lexical receivable ID, so repeated
// calls over the same inputs return the same ordering.
func (s *MatchingService) ProposeMatches(ctx context.Context, movement domain.BankMovement, pool []domain.Receivable) []domain.MatchCandidate {
	all := s.ProposeAll(ctx, movement, pool)

	out := make([]domain.MatchCandidate, 0, len(all))
	for _, candidate := range all {
		if candidate.Confidence > s.cfg.AcceptanceFloor {
			out = append(out, candidate)
		}
	}
	return out
}

// ProposeAll is the inspection path: every scored candidate, including the
// ones at or below the floor, for operator audit. Same ordering rules.
func (s *MatchingService) ProposeAll(_ context.Context, movement domain.BankMovement, pool []domain.Receivable) []domain.MatchCandidate {
	candidates := make([]domain.MatchCandidate, 0, len(pool))
	for _, receivable := range pool {
		if receivable.Outstanding().IsZero() {
			continue
		}
		candidates = append(candidates, s.score(movement, receivable))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		if candidates[i].DateDistance != candidates[j].DateDistance {
			return candidates[i].DateDistance < candidates[j].DateDistance
		}
		return candidates[i].ReceivableID < candidates[j].ReceivableID
	})

	logger.Info("matching service proposals scored", logger.Fields{
		"movementId": movement.ID,
		"poolSize":   len(pool),
		"candidates": len(candidates),
	})
	return candidates
}

func (s *MatchingService) score(movement domain.BankMovement, receivable domain.Receivable) domain.MatchCandidate {
	candidate := domain.MatchCandidate{
		MovementID:   movement.ID,
		ReceivableID: receivable.ID,
	}

	amountPoints, amountNotes := scoreAmount(movement.Amount.Abs(), receivable.Amount)
	datePoints, dateDistance, dateNotes := scoreDate(movement.ValueDate, receivable)
	candidate.DateDistance = dateDistance

	// Structured-identifier fast path: an embedded payer document id that
	// matches the registered one is a deterministic link, not a scored one.
	// Amount and date findings remain attached as advisory notes.
	if documentEmbedded(movement.Description, receivable.PayerDocument) {
		candidate.Confidence = 100
		candidate.Classification = domain.MatchExact
		candidate.AmountPoints = amountPoints
		candidate.DatePoints = datePoints
		candidate.IdentityPoints = identitySignalMax
		candidate.Notes = append([]string{"payer document id found in movement description"}, append(amountNotes, dateNotes...)...)
		return candidate
	}

	identityPoints, identityNotes := scoreIdentity(movement.Description, receivable.PayerName)

	candidate.AmountPoints = amountPoints
	candidate.DatePoints = datePoints
	candidate.IdentityPoints = identityPoints
	candidate.Confidence = amountPoints + datePoints + identityPoints
	candidate.Notes = append(append(amountNotes, dateNotes...), identityNotes...)

	switch {
	case amountPoints == amountSignalMax && candidate.Confidence >= s.cfg.ExactThreshold:
		candidate.Classification = domain.MatchExact
	case candidate.Confidence >= s.cfg.CloseThreshold:
		candidate.Classification = domain.MatchClose
	default:
		candidate.Classification = domain.MatchSuspicious
	}
	return candidate
}

func scoreAmount(movementAmount, receivableAmount decimal.Decimal) (int, []string) {
	diff := movementAmount.Sub(receivableAmount).Abs()
	if diff.IsZero() {
		return amountSignalMax, nil
	}

	pct := diff.Div(receivableAmount).Mul(decimal.NewFromInt(100))
	for _, band := range amountBands {
		if pct.LessThanOrEqual(decimal.NewFromInt(band.maxPct)) {
			return band.points, []string{fmt.Sprintf(
				"amount differs by %s (%s%%)",
				diff.StringFixed(2), pct.StringFixed(2),
			)}
		}
	}

	return 0, []string{fmt.Sprintf(
		"amount diverges by %s (%s%%), beyond the 10%% band",
		diff.StringFixed(2), pct.StringFixed(2),
	)}
}

func scoreDate(movementDate time.Time, receivable domain.Receivable) (int, int, []string) {
	referenceDate := receivable.DueDate
	reference := "due date"
	if receivable.PaymentDate != nil {
		if daysBetween(movementDate, *receivable.PaymentDate) < daysBetween(movementDate, receivable.DueDate) {
			referenceDate = *receivable.PaymentDate
			reference = "recorded payment date"
		}
	}

	days := daysBetween(movementDate, referenceDate)
	direction := "after"
	if movementDate.Before(referenceDate) {
		direction = "before"
	}

	for _, band := range dateBands {
		if days <= band.maxDays {
			var notes []string
			if band.noted {
				notes = []string{fmt.Sprintf("movement dated %d days %s the %s", days, direction, reference)}
			}
			return band.points, days, notes
		}
	}

	return 0, days, []string{fmt.Sprintf("movement dated %d days %s the %s", days, direction, reference)}
}

func scoreIdentity(description, payerName string) (int, []string) {
	haystack := strings.ToLower(description)

	var tokens []string
	for _, word := range strings.Fields(payerName) {
		if len([]rune(word)) > minTokenLength {
			tokens = append(tokens, strings.ToLower(word))
		}
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	var matched []string
	for _, token := range tokens {
		if strings.Contains(haystack, token) {
			matched = append(matched, token)
		}
	}

	if len(matched) == len(tokens) {
		return identitySignalMax, nil
	}
	if len(matched) == 0 {
		return 0, nil
	}

	points := int(math.Round(float64(identitySignalMax) * float64(len(matched)) / float64(len(tokens))))
	return points, []string{fmt.Sprintf(
		"payer name partially present: matched tokens %s", strings.Join(matched, ", "),
	)}
}

// documentEmbedded looks for the payer's registered tax identifier inside
// the movement description, digits only, to avoid formatting mismatches.
func documentEmbedded(description, payerDocument string) bool {
	document := digitsOnly(payerDocument)
	if len(document) < 11 {
		return false
	}
	return strings.Contains(digitsOnly(description), document)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)

	days := int(da.Sub(db).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
