// Package bot runs the gateway event loop and fans events out to the
// interactive subsystems.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ent0n29/ayanamist/internal/dispatch"
	"github.com/ent0n29/ayanamist/internal/logging"
	"github.com/ent0n29/ayanamist/internal/observability"
	"github.com/ent0n29/ayanamist/internal/platform"
)

// CommandFunc handles one slash-command invocation.
type CommandFunc func(ctx context.Context, ic *platform.Interaction) error

// ComponentRouter dispatches component interactions by custom-id namespace.
type ComponentRouter interface {
	Dispatch(ctx context.Context, ic *platform.Interaction) error
}

// MemberGreeter handles member-add events.
type MemberGreeter interface {
	HandleMemberAdd(ctx context.Context, m *platform.Member) error
}

// Registrar registers the slash-command set.
type Registrar interface {
	OverwriteGuildCommands(ctx context.Context, applicationID, guildID string, commands []platform.ApplicationCommand) error
}

// Publisher receives the live channel message stream.
type Publisher interface {
	Publish(m platform.Message)
}

// Bot consumes gateway events. Each interaction runs on its own goroutine so
// a blocking round (quiz, captcha wait) never stalls the event loop.
type Bot struct {
	registrar Registrar
	router    ComponentRouter
	greeter   MemberGreeter
	publisher Publisher
	metrics   *observability.Metrics

	commands map[string]CommandFunc

	applicationID string
	guildID       string

	ready atomic.Bool
	wg    sync.WaitGroup
}

// Options wires the bot's collaborators.
type Options struct {
	Registrar     Registrar
	Router        ComponentRouter
	Greeter       MemberGreeter
	Publisher     Publisher
	Metrics       *observability.Metrics
	Commands      map[string]CommandFunc
	ApplicationID string
	GuildID       string
}

func New(opts Options) *Bot {
	return &Bot{
		registrar:     opts.Registrar,
		router:        opts.Router,
		greeter:       opts.Greeter,
		publisher:     opts.Publisher,
		metrics:       opts.Metrics,
		commands:      opts.Commands,
		applicationID: opts.ApplicationID,
		guildID:       opts.GuildID,
	}
}

// CommandTable builds the default command handlers from the subsystem
// handlers. Simple commands answer inline; the rest delegate.
func CommandTable(responder dispatch.Responder, verify, quiz, proxyList, proxyCheck CommandFunc) map[string]CommandFunc {
	return map[string]CommandFunc{
		"ping":       replyText(responder, "pong 🦀"),
		"captcha":    verify,
		"dareda":     quiz,
		"proxy":      proxyList,
		"proxycheck": proxyCheck,
		"dj":         replyText(responder, djVideoURL),
		"sayakais":   replyText(responder, sayakaisVideoURL),
	}
}

// Ready reports whether the gateway has completed its handshake.
func (b *Bot) Ready() bool {
	return b.ready.Load()
}

// Run registers the command set and consumes events until the stream closes
// or ctx is cancelled. In-flight handlers are waited for on the way out.
func (b *Bot) Run(ctx context.Context, events <-chan platform.Event) error {
	defer b.wg.Wait()
	logger := logging.With("bot")

	if b.registrar != nil {
		if err := b.registrar.OverwriteGuildCommands(ctx, b.applicationID, b.guildID, CommandSpecs()); err != nil {
			return fmt.Errorf("register commands: %w", err)
		}
		logger.Info().Int("commands", len(CommandSpecs())).Msg("guild commands registered")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			b.handleEvent(ctx, ev)
		}
	}
}

func (b *Bot) handleEvent(ctx context.Context, ev platform.Event) {
	logger := logging.With("bot")
	b.metrics.IncGatewayEvent(ev.Type)

	switch ev.Type {
	case "READY":
		var ready struct {
			User platform.User `json:"user"`
		}
		if err := json.Unmarshal(ev.Raw, &ready); err == nil {
			logger.Info().Str("username", ready.User.Username).Msg("logged in")
		}
		b.ready.Store(true)

	case "INTERACTION_CREATE":
		var ic platform.Interaction
		if err := json.Unmarshal(ev.Raw, &ic); err != nil {
			logger.Warn().Err(err).Msg("undecodable interaction dropped")
			return
		}
		b.spawn("interaction", func() error {
			return b.handleInteraction(ctx, &ic)
		})

	case "MESSAGE_CREATE":
		var m platform.Message
		if err := json.Unmarshal(ev.Raw, &m); err != nil {
			logger.Warn().Err(err).Msg("undecodable message dropped")
			return
		}
		if m.Author.Bot {
			return
		}
		if b.publisher != nil {
			b.publisher.Publish(m)
		}

	case "GUILD_MEMBER_ADD":
		var m platform.Member
		if err := json.Unmarshal(ev.Raw, &m); err != nil {
			logger.Warn().Err(err).Msg("undecodable member dropped")
			return
		}
		if b.greeter != nil {
			b.spawn("greeter", func() error {
				return b.greeter.HandleMemberAdd(ctx, &m)
			})
		}
	}
}

func (b *Bot) handleInteraction(ctx context.Context, ic *platform.Interaction) error {
	switch ic.Type {
	case platform.InteractionCommand:
		if ic.Data == nil {
			return nil
		}
		fn, ok := b.commands[ic.Data.Name]
		if !ok {
			logging.With("bot").Warn().Str("command", ic.Data.Name).Msg("unknown command dropped")
			return nil
		}
		return fn(ctx, ic)
	case platform.InteractionMessageComponent:
		if b.router == nil {
			return nil
		}
		return b.router.Dispatch(ctx, ic)
	default:
		return nil
	}
}

// spawn runs a handler on its own goroutine. A panic in one handler is
// contained: the event loop and other rounds keep running.
func (b *Bot) spawn(subsystem string, fn func() error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.metrics.IncHandlerError(subsystem)
				logging.With("bot").Error().
					Str("subsystem", subsystem).
					Any("panic", r).
					Msg("handler panicked")
			}
		}()
		if err := fn(); err != nil {
			b.metrics.IncHandlerError(subsystem)
			logging.With("bot").Error().Err(err).Str("subsystem", subsystem).Msg("handler failed")
		}
	}()
}
