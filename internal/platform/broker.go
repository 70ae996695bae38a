package platform

import (
	"sync"

	"github.com/ent0n29/ayanamist/internal/logging"
)

const subscriberBuffer = 16

// Broker fans inbound channel messages out to per-channel subscribers. A
// subscriber that falls behind loses messages rather than blocking the
// publisher.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Message
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]chan Message)}
}

// Subscribe returns a stream of messages posted to the given channel and a
// cancel function that must be called when done.
func (b *Broker) Subscribe(channelID string) (<-chan Message, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan Message, subscriberBuffer)
	if b.subs[channelID] == nil {
		b.subs[channelID] = make(map[int]chan Message)
	}
	b.subs[channelID][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[channelID]; ok {
			if c, ok := set[id]; ok {
				delete(set, id)
				close(c)
			}
			if len(set) == 0 {
				delete(b.subs, channelID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers a message to every subscriber of its channel.
func (b *Broker) Publish(m Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[m.ChannelID] {
		select {
		case ch <- m:
		default:
			logging.With("broker").Warn().
				Str("channel_id", m.ChannelID).
				Msg("dropping message for slow subscriber")
		}
	}
}
