package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/ayanamist/internal/logging"
	"github.com/ent0n29/ayanamist/internal/reliability"
)

// Gateway opcodes.
const (
	opDispatch     = 0
	opHeartbeat    = 1
	opIdentify     = 2
	opReconnect    = 7
	opInvalidSess  = 9
	opHello        = 10
	opHeartbeatAck = 11
)

// Gateway intents: guilds, members, guild messages, message content.
const defaultIntents = 1<<0 | 1<<1 | 1<<9 | 1<<15

// Event is one dispatched gateway event; Raw holds the undecoded payload.
type Event struct {
	Type string
	Raw  json.RawMessage
}

type gatewayPayload struct {
	Op       int             `json:"op"`
	Data     json.RawMessage `json:"d,omitempty"`
	Sequence *int64          `json:"s,omitempty"`
	Type     string          `json:"t,omitempty"`
}

type helloData struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type identifyData struct {
	Token      string `json:"token"`
	Intents    int    `json:"intents"`
	Properties struct {
		OS      string `json:"os"`
		Browser string `json:"browser"`
		Device  string `json:"device"`
	} `json:"properties"`
}

// Gateway maintains the realtime connection to the platform and delivers
// dispatched events to a channel. It reconnects with capped backoff until the
// context is cancelled.
type Gateway struct {
	url    string
	token  string
	events chan Event
}

func NewGateway(url, token string) *Gateway {
	return &Gateway{
		url:    url,
		token:  token,
		events: make(chan Event, 64),
	}
}

// Events returns the dispatch stream. It is closed when Run returns.
func (g *Gateway) Events() <-chan Event {
	return g.events
}

// Run connects and pumps events until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) error {
	defer close(g.events)
	logger := logging.With("gateway")

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := g.runOnce(ctx)
		if err != nil && errors.Is(err, context.Canceled) {
			return err
		}
		wait := reliability.ExponentialBackoff(attempt, time.Second, time.Minute)
		attempt++
		logger.Warn().Err(err).Dur("retry_in", wait).Msg("gateway connection lost")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (g *Gateway) runOnce(ctx context.Context) error {
	logger := logging.With("gateway")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	defer conn.Close()

	// The hello frame carries the heartbeat interval.
	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello opcode, got %d", hello.Op)
	}
	var hd helloData
	if err := json.Unmarshal(hello.Data, &hd); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}
	if hd.HeartbeatInterval <= 0 {
		return fmt.Errorf("invalid heartbeat interval %d", hd.HeartbeatInterval)
	}

	ident := identifyData{Token: g.token, Intents: defaultIntents}
	ident.Properties.OS = "linux"
	ident.Properties.Browser = "ayanamist"
	ident.Properties.Device = "ayanamist"
	raw, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("marshal identify: %w", err)
	}
	if err := conn.WriteJSON(gatewayPayload{Op: opIdentify, Data: raw}); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}

	var lastSeq atomic.Int64
	writes := make(chan gatewayPayload, 8)
	readErr := make(chan error, 1)

	hbCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(time.Duration(hd.HeartbeatInterval) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				raw, _ := json.Marshal(lastSeq.Load())
				select {
				case writes <- gatewayPayload{Op: opHeartbeat, Data: raw}:
				case <-hbCtx.Done():
					return
				}
			}
		}
	}()

	go func() {
		for {
			var p gatewayPayload
			if err := conn.ReadJSON(&p); err != nil {
				readErr <- err
				return
			}
			if p.Sequence != nil {
				lastSeq.Store(*p.Sequence)
			}
			switch p.Op {
			case opDispatch:
				if p.Type == "" {
					continue
				}
				select {
				case g.events <- Event{Type: p.Type, Raw: p.Data}:
				case <-hbCtx.Done():
					return
				}
			case opHeartbeat:
				raw, _ := json.Marshal(lastSeq.Load())
				select {
				case writes <- gatewayPayload{Op: opHeartbeat, Data: raw}:
				case <-hbCtx.Done():
					return
				}
			case opReconnect, opInvalidSess:
				readErr <- fmt.Errorf("gateway requested reconnect (op %d)", p.Op)
				return
			case opHeartbeatAck:
			default:
				logger.Debug().Int("op", p.Op).Msg("ignoring gateway opcode")
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return ctx.Err()
		case err := <-readErr:
			return err
		case p := <-writes:
			if err := conn.WriteJSON(p); err != nil {
				return fmt.Errorf("gateway write: %w", err)
			}
		}
	}
}
