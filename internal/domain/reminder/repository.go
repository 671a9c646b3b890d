// internal/domain/reminder/repository.go
package reminder

import (
	"context"
	"time"
)

// PolicyRepository reads reminder policy rows. Rows are maintained by the
// back-office admin screens; this service never writes them.
type PolicyRepository interface {
	// ListActive returns active rows ordered by service type.
	ListActive(ctx context.Context) ([]*PolicyConfig, error)
	GetActiveByService(ctx context.Context, st ServiceType) (*PolicyConfig, error)
}

// RecordSource fetches records of one service type that are close enough to
// expiry to be worth evaluating on the reference date. horizonDays is the
// policy's Horizon; every record expiring within it must be returned.
type RecordSource interface {
	FetchCandidates(ctx context.Context, st ServiceType, reference time.Time, horizonDays int) ([]*Record, error)
}
