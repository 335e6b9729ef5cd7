package bot

import (
	"context"
	"log"
	"time"

	"github.com/concalliq/concalliq/internal/config"
	"github.com/concalliq/concalliq/internal/telegram"
)

// errorBackoff is the fixed pause after a non-timeout transport error.
const errorBackoff = 5 * time.Second

type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]telegram.Update, error)
}

type Dispatcher interface {
	HandleUpdate(ctx context.Context, u telegram.Update)
}

// PollState carries the only mutable loop state: the next offset to
// acknowledge. It is written by the loop goroutine alone.
type PollState struct {
	Offset int64
}

// Poller long-polls the chat transport and hands every update to the
// dispatcher on its own worker. Workers are bounded by a semaphore; there is
// no ordering across updates. The offset advances as soon as a batch is
// received, so delivery is at-most-once: a crash mid-handling drops the
// in-flight updates.
type Poller struct {
	source      UpdateSource
	dispatcher  Dispatcher
	state       PollState
	pollTimeout int
	backoff     time.Duration
	workers     chan struct{}
}

func NewPoller(source UpdateSource, dispatcher Dispatcher, cfg *config.Config) *Poller {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 32
	}
	return &Poller{
		source:      source,
		dispatcher:  dispatcher,
		pollTimeout: cfg.PollTimeout,
		backoff:     errorBackoff,
		workers:     make(chan struct{}, maxWorkers),
	}
}

// Run polls until ctx is cancelled. Long-poll expiry loops immediately; any
// other transport error logs and backs off for a fixed interval.
func (p *Poller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := p.source.GetUpdates(ctx, p.state.Offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if telegram.IsTimeout(err) {
				continue
			}
			log.Printf("poll: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.backoff):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= p.state.Offset {
				p.state.Offset = u.UpdateID + 1
			}

			select {
			case p.workers <- struct{}{}:
			case <-ctx.Done():
				return
			}
			go func(u telegram.Update) {
				defer func() { <-p.workers }()
				p.dispatcher.HandleUpdate(ctx, u)
			}(u)
		}
	}
}

// Offset exposes the next acknowledge position, mainly for tests.
func (p *Poller) Offset() int64 {
	return p.state.Offset
}
