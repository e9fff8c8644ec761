package service_interfaces

import (
	"context"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type MatchingService interface {
	// ProposeMatches scores the movement against the pool and returns the
	// candidates above the acceptance floor, best first.
	ProposeMatches(ctx context.Context, movement domain.BankMovement, pool []domain.Receivable) []domain.MatchCandidate
	// ProposeAll returns every scored candidate, floor included, for audit.
	ProposeAll(ctx context.Context, movement domain.BankMovement, pool []domain.Receivable) []domain.MatchCandidate
	// ProposeForMovement loads the movement and the open-receivable pool,
	// scores them, and advances an unmatched movement to Proposed when at
	// least one candidate clears the floor.
	ProposeForMovement(ctx context.Context, tenantID, movementID string, includeBelowFloor bool) ([]domain.MatchCandidate, error)
	// Reject declines every candidate for the movement: terminal Rejected
	// status, reviewed flag set, movement kept on file.
	Reject(ctx context.Context, tenantID, movementID string) (domain.BankMovement, error)
}
