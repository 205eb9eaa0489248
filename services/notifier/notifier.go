package notifier

import "context"

// Notifier delivers a rendered digest to its audience
type Notifier interface {
	// Notify sends text as a single message
	Notify(ctx context.Context, text string) error
}
