package baseline

import "context"

// Repository provides persistence for baselines.
type Repository interface {
	Create(ctx context.Context, b *Baseline) error
	Get(ctx context.Context, projectID, id string) (*Baseline, error)
	List(ctx context.Context, projectID string) ([]*Baseline, error)
	NextNumber(ctx context.Context, projectID string) (int, error)
	// SetActive marks the baseline active and deactivates any other baseline
	// of the project in the same transaction.
	SetActive(ctx context.Context, projectID, id string) error
}
