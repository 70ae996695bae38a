// Package greeter announces new guild members.
package greeter

import (
	"context"
	"fmt"

	"github.com/ent0n29/ayanamist/internal/logging"
	"github.com/ent0n29/ayanamist/internal/platform"
)

// MessagePoster posts channel messages.
type MessagePoster interface {
	CreateMessage(ctx context.Context, channelID string, msg platform.MessageCreate) (*platform.Message, error)
}

// Handler posts a join notice for each new member of the configured guild.
type Handler struct {
	client    MessagePoster
	guildID   string
	channelID string
}

func NewHandler(client MessagePoster, guildID, channelID string) *Handler {
	return &Handler{client: client, guildID: guildID, channelID: channelID}
}

// HandleMemberAdd posts the join notice. Members of other guilds and events
// without a user are ignored.
func (h *Handler) HandleMemberAdd(ctx context.Context, m *platform.Member) error {
	if h.channelID == "" || m == nil || m.User == nil {
		return nil
	}
	if m.GuildID != h.guildID {
		return nil
	}

	joined := "不明"
	if m.JoinedAt != nil {
		joined = fmt.Sprintf("<t:%d:F>", m.JoinedAt.Unix())
	}
	created := platform.SnowflakeTime(m.User.ID)

	_, err := h.client.CreateMessage(ctx, h.channelID, platform.MessageCreate{
		Content: fmt.Sprintf(
			"<@%s> (%s) join\njoin server %s\njoin discord <t:%d:F>",
			m.User.ID, m.User.Username, joined, created.Unix(),
		),
		AllowedMentions: platform.NoMentions(),
	})
	if err != nil {
		return fmt.Errorf("post join notice: %w", err)
	}
	logging.With("greeter").Info().
		Str("user_id", m.User.ID).
		Str("username", m.User.Username).
		Msg("member greeted")
	return nil
}
