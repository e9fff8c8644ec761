package repo_interfaces

import (
	"context"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type MovementRepository interface {
	Create(ctx context.Context, movement domain.BankMovement) (domain.BankMovement, error)
	GetByID(ctx context.Context, tenantID, movementID string) (domain.BankMovement, error)
	Update(ctx context.Context, movement domain.BankMovement) (domain.BankMovement, error)
	ListByStatus(ctx context.Context, tenantID string, status domain.MovementStatus) ([]domain.BankMovement, error)
	// ListByValueDate returns movements whose value date falls on day,
	// used for day-scoped settlement pools.
	ListByValueDate(ctx context.Context, tenantID string, day time.Time) ([]domain.BankMovement, error)
	ListBetween(ctx context.Context, tenantID string, from, to time.Time) ([]domain.BankMovement, error)
}
