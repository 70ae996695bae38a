package dispatch

import (
	"context"
	"strings"

	"github.com/ent0n29/ayanamist/internal/logging"
	"github.com/ent0n29/ayanamist/internal/platform"
)

// Responder acknowledges interactions against the platform.
type Responder interface {
	CreateInteractionResponse(ctx context.Context, interactionID, token string, resp platform.InteractionResponse) error
}

// Respond acknowledges an interaction through the guard. The platform accepts
// exactly one acknowledgement per interaction and revokes pending interactions
// after a few seconds, so a duplicate or late acknowledgement is a normal
// race, not a fault: those two failures are absorbed. Everything else is
// returned to the caller.
func Respond(ctx context.Context, r Responder, ic *platform.Interaction, resp platform.InteractionResponse) error {
	err := r.CreateInteractionResponse(ctx, ic.ID, ic.Token, resp)
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "Unknown interaction") || strings.Contains(msg, "already been acknowledged") {
		logging.With("dispatch").Debug().
			Str("interaction_id", ic.ID).
			Msg("skipped interaction response: " + msg)
		return nil
	}
	return err
}

// RespondEphemeral sends a short ephemeral text reply through the guard.
func RespondEphemeral(ctx context.Context, r Responder, ic *platform.Interaction, content string) error {
	return Respond(ctx, r, ic, platform.InteractionResponse{
		Type: platform.ResponseChannelMessage,
		Data: &platform.ResponseData{Content: content, Flags: platform.FlagEphemeral},
	})
}
