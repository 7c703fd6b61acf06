package alerts

import "context"

// Notifier surfaces conditions that need an operator: data-integrity
// failures and transcript retrieval stuck past its retry threshold.
type Notifier interface {
	Notify(ctx context.Context, subject, detail string) error
}
