package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"sync"
	"testing"
	"time"

	"sjsage522/hsmoadigest/internal/scraper"
	"sjsage522/hsmoadigest/services/notifier"
	"sjsage522/hsmoadigest/services/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockSource implements the Source interface for testing
type MockSource struct {
	result *scraper.Result
	err    error
	calls  int
}

// Ensure MockSource implements Source
var _ Source = (*MockSource)(nil)

func (m *MockSource) Scrape(ctx context.Context) (*scraper.Result, error) {
	m.calls++
	return m.result, m.err
}

// MockNotifier implements the notifier.Notifier interface for testing
type MockNotifier struct {
	mu       sync.Mutex
	messages []string
	ctxErrs  []error
	err      error
}

// Ensure MockNotifier implements notifier.Notifier
var _ notifier.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	return m.err
}

// BlockingSource waits for the run context to end and fails with its error
type BlockingSource struct{}

var _ Source = BlockingSource{}

func (BlockingSource) Scrape(ctx context.Context) (*scraper.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu        sync.Mutex
	published [][]scraper.ScheduleItem
	err       error
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) PublishSchedule(ctx context.Context, runAt time.Time, items []scraper.ScheduleItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, items)
	return m.err
}

func (m *MockPublisher) Close() error {
	return nil
}

var fixedNow = func() time.Time {
	return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
}

func TestRunOnceDeliversSchedule(t *testing.T) {
	source := &MockSource{result: &scraper.Result{
		Items: []scraper.ScheduleItem{{Time: "06:30", Title: "Sample Product"}},
	}}
	n := &MockNotifier{}
	p := &MockPublisher{}

	w := NewWorker(source, n, scraper.FilterSpec{}, 80, WithPublisher(p), WithClock(fixedNow), WithDevelopment(true))
	err := w.RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, n.messages, 1)
	lines := strings.Split(n.messages[0], "\n")
	assert.Equal(t, "*2024-05-02 홈쇼핑모아 편성 – 전체*", lines[0])
	assert.Equal(t, "• `06:30` Sample Product", lines[len(lines)-1])
	require.Len(t, p.published, 1)
	assert.Equal(t, source.result.Items, p.published[0])
}

func TestRunOnceNoData(t *testing.T) {
	n := &MockNotifier{}
	w := NewWorker(&MockSource{result: &scraper.Result{}}, n, scraper.FilterSpec{ShopText: "롯데홈쇼핑"}, 80, WithClock(fixedNow))

	require.NoError(t, w.RunOnce(context.Background()))
	require.Len(t, n.messages, 1)
	assert.Equal(t, "*2024-05-02 홈쇼핑모아 편성 – 롯데홈쇼핑*\n_데이터 없음(필터/셀렉터 확인 필요)_", n.messages[0])
}

func TestRunOnceDeliveryFailureIsSwallowed(t *testing.T) {
	source := &MockSource{result: &scraper.Result{
		Items: []scraper.ScheduleItem{{Time: "06:30", Title: "Sample Product"}},
	}}
	n := &MockNotifier{err: errors.New("webhook returned 500")}
	p := &MockPublisher{}

	w := NewWorker(source, n, scraper.FilterSpec{}, 80, WithPublisher(p), WithClock(fixedNow))

	assert.NoError(t, w.RunOnce(context.Background()))
	assert.Len(t, n.messages, 1)
	assert.Len(t, p.published, 1)
}

func TestRunOnceScrapeFailureSendsErrorDigest(t *testing.T) {
	scrapeErr := errors.New("[navigation] navigate: failed to load https://hsmoa.com/ after 3 attempts")
	n := &MockNotifier{}
	p := &MockPublisher{}

	w := NewWorker(&MockSource{err: scrapeErr}, n, scraper.FilterSpec{}, 80, WithPublisher(p), WithClock(fixedNow))
	err := w.RunOnce(context.Background())

	assert.ErrorIs(t, err, scrapeErr)
	require.Len(t, n.messages, 1)
	assert.True(t, strings.HasPrefix(n.messages[0], "*2024-05-02 홈쇼핑모아 편성 – 에러*\n```"))
	assert.Contains(t, n.messages[0], "after 3 attempts")
	assert.Empty(t, p.published)
}

func TestRunOnceErrorDigestDeliveryFailure(t *testing.T) {
	scrapeErr := errors.New("browser crashed")
	n := &MockNotifier{err: errors.New("connection refused")}

	w := NewWorker(&MockSource{err: scrapeErr}, n, scraper.FilterSpec{}, 80)

	// the scrape failure is what surfaces, never the delivery failure
	assert.Equal(t, scrapeErr, w.RunOnce(context.Background()))
}

func TestRunOncePublishFailureIsLogged(t *testing.T) {
	n := &MockNotifier{}
	p := &MockPublisher{err: errors.New("redis down")}

	w := NewWorker(&MockSource{result: &scraper.Result{}}, n, scraper.FilterSpec{}, 80, WithPublisher(p))

	assert.NoError(t, w.RunOnce(context.Background()))
	assert.Len(t, n.messages, 1)
}

func TestRunOnceReportsDeadlineExpiry(t *testing.T) {
	n := &MockNotifier{}
	w := NewWorker(BlockingSource{}, n, scraper.FilterSpec{}, 80, WithClock(fixedNow))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := w.RunOnce(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "편성 – 에러*")
	assert.Contains(t, n.messages[0], "context deadline exceeded")
	// the digest is sent on a live context even though the run's context is done
	assert.NoError(t, n.ctxErrs[0])
}

func TestRunOnceReportsCancellationToSlack(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	slack := notifier.NewSlackNotifier(server.URL, time.Second)
	w := NewWorker(BlockingSource{}, slack, scraper.FilterSpec{}, 80)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.RunOnce(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), hits.Load())
}
