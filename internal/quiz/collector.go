package quiz

import (
	"context"
	"time"

	"github.com/ent0n29/ayanamist/internal/platform"
)

// Collector produces, one at a time, the messages that explicitly reply to an
// anchor message, until the deadline passes or the stream ends. Unrelated
// channel chatter is skipped without consuming the deadline budget.
type Collector struct {
	stream   <-chan platform.Message
	anchorID string
	deadline time.Time
}

func NewCollector(stream <-chan platform.Message, anchorID string, timeLimit time.Duration) *Collector {
	return &Collector{
		stream:   stream,
		anchorID: anchorID,
		deadline: time.Now().Add(timeLimit),
	}
}

// Next blocks until a matching reply arrives. The second return value is
// false once the deadline has elapsed, the stream closed, or ctx was
// cancelled.
func (c *Collector) Next(ctx context.Context) (platform.Message, bool) {
	for {
		remaining := time.Until(c.deadline)
		if remaining <= 0 {
			return platform.Message{}, false
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return platform.Message{}, false
		case <-timer.C:
			return platform.Message{}, false
		case m, ok := <-c.stream:
			timer.Stop()
			if !ok {
				return platform.Message{}, false
			}
			if m.MessageReference != nil && m.MessageReference.MessageID == c.anchorID {
				return m, true
			}
		}
	}
}
