// Package live streams newly appended room messages to open connections.
// Each connection runs its own poll loop against the message ledger.
package live

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/pkg/logger"
	"github.com/anonto42/nano-midea/chat/pkg/metrics"
	"go.uber.org/zap"
)

const (
	DefaultInterval  = 500 * time.Millisecond
	DefaultHeartbeat = 25 * time.Second
	defaultBatch     = 200
)

// Source is the part of the chat service a stream reads from.
type Source interface {
	LatestMessageID(ctx context.Context, id models.Identity, roomID uint) (uint, error)
	MessagesSince(ctx context.Context, id models.Identity, roomID, afterID uint, limit int) ([]chat.MessageView, error)
}

// Sink is one client connection. Methods are called from the poll loop
// goroutine only.
type Sink interface {
	Open(roomID, watermark uint) error
	Message(msg chat.MessageView) error
	Error(message string) error
	Closed(reason string) error
	Heartbeat() error
}

type Poller struct {
	source    Source
	interval  time.Duration
	heartbeat time.Duration
	batch     int
}

type Option func(*Poller)

func WithHeartbeat(d time.Duration) Option {
	return func(p *Poller) { p.heartbeat = d }
}

func WithBatch(n int) Option {
	return func(p *Poller) { p.batch = n }
}

func NewPoller(source Source, interval time.Duration, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		source:    source,
		interval:  interval,
		heartbeat: DefaultHeartbeat,
		batch:     defaultBatch,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run drives one connection until ctx is cancelled, the sink fails or the
// room stops being active. afterID nil starts at the room's latest message.
//
// A room that is missing when the stream starts is returned as an error
// before Open is called. A room deactivated mid-stream is reported through
// Closed and Run returns nil. Other poll failures are sent as Error events
// and retried on the next tick. Run performs no store calls after it
// returns.
func (p *Poller) Run(ctx context.Context, id models.Identity, roomID uint, afterID *uint, sink Sink) error {
	latest, err := p.source.LatestMessageID(ctx, id, roomID)
	if err != nil {
		return err
	}
	watermark := latest
	if afterID != nil {
		watermark = *afterID
	}
	if err := sink.Open(roomID, watermark); err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	heartbeat := time.NewTicker(p.heartbeat)
	defer heartbeat.Stop()

	log := logger.Log.With(zap.Uint("room_id", roomID), zap.String("user", id.Email))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if err := sink.Heartbeat(); err != nil {
				return err
			}
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			msgs, err := p.source.MessagesSince(ctx, id, roomID, watermark, p.batch)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if chat.KindOf(err) == chat.KindNotFound {
					return sink.Closed("room is no longer active")
				}
				metrics.StreamPollErrors.Inc()
				log.Warn("live poll failed", zap.Error(err))
				if err := sink.Error("could not fetch new messages, retrying"); err != nil {
					return err
				}
				continue
			}
			for _, m := range msgs {
				if m.ID <= watermark {
					continue
				}
				if err := sink.Message(m); err != nil {
					return err
				}
				watermark = m.ID
				metrics.StreamMessagesPushed.Inc()
			}
		}
	}
}
