package publisher

import (
	"context"
	"time"

	"sjsage522/hsmoadigest/internal/scraper"
)

// Publisher represents a service for publishing a run's schedule to downstream consumers
type Publisher interface {
	// PublishSchedule publishes the items extracted by one run
	PublishSchedule(ctx context.Context, runAt time.Time, items []scraper.ScheduleItem) error

	// Close closes the publisher connection
	Close() error
}
