package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/concalliq/concalliq/internal/config"
	"github.com/concalliq/concalliq/internal/telegram"
)

type scriptedSource struct {
	mu      sync.Mutex
	batches [][]telegram.Update
	errs    []error
	cancel  context.CancelFunc
}

func (s *scriptedSource) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]telegram.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batches) == 0 {
		s.cancel()
		return nil, ctx.Err()
	}
	batch, err := s.batches[0], s.errs[0]
	s.batches, s.errs = s.batches[1:], s.errs[1:]
	return batch, err
}

type countingDispatcher struct {
	mu  sync.Mutex
	ids []int64
	wg  sync.WaitGroup
}

func (d *countingDispatcher) HandleUpdate(ctx context.Context, u telegram.Update) {
	d.mu.Lock()
	d.ids = append(d.ids, u.UpdateID)
	d.mu.Unlock()
	d.wg.Done()
}

func testPollerConfig() *config.Config {
	return &config.Config{PollTimeout: 1, MaxWorkers: 4}
}

func TestPollerAdvancesOffsetPastBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	src := &scriptedSource{
		batches: [][]telegram.Update{{
			{UpdateID: 5}, {UpdateID: 6}, {UpdateID: 7},
		}},
		errs:   []error{nil},
		cancel: cancel,
	}
	disp := &countingDispatcher{}
	disp.wg.Add(3)

	p := NewPoller(src, disp, testPollerConfig())
	p.Run(ctx)
	disp.wg.Wait()

	if got := p.Offset(); got != 8 {
		t.Fatalf("offset = %d, want max(update_id)+1 = 8", got)
	}
	if len(disp.ids) != 3 {
		t.Fatalf("expected 3 dispatched updates, got %d", len(disp.ids))
	}
}

func TestPollerOffsetMonotonic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// A re-delivered old update must not move the offset backwards.
	src := &scriptedSource{
		batches: [][]telegram.Update{
			{{UpdateID: 10}},
			{{UpdateID: 3}},
		},
		errs:   []error{nil, nil},
		cancel: cancel,
	}
	disp := &countingDispatcher{}
	disp.wg.Add(2)

	p := NewPoller(src, disp, testPollerConfig())
	p.Run(ctx)
	disp.wg.Wait()

	if got := p.Offset(); got != 11 {
		t.Fatalf("offset = %d, want 11", got)
	}
}

func TestPollerContinuesAfterTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// A long-poll expiry is a normal outcome: no backoff, next poll proceeds.
	src := &scriptedSource{
		batches: [][]telegram.Update{
			nil,
			{{UpdateID: 1}},
		},
		errs:   []error{context.DeadlineExceeded, nil},
		cancel: cancel,
	}
	disp := &countingDispatcher{}
	disp.wg.Add(1)

	p := NewPoller(src, disp, testPollerConfig())
	start := time.Now()
	p.Run(ctx)
	disp.wg.Wait()

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout should not trigger backoff, took %v", elapsed)
	}
	if got := p.Offset(); got != 2 {
		t.Fatalf("offset = %d, want 2", got)
	}
}
