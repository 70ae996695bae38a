package verify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ent0n29/ayanamist/internal/dispatch"
	"github.com/ent0n29/ayanamist/internal/ledger"
	"github.com/ent0n29/ayanamist/internal/logging"
	"github.com/ent0n29/ayanamist/internal/observability"
	"github.com/ent0n29/ayanamist/internal/platform"
)

const (
	startAction  = "start"
	answerPrefix = "ans:"

	guideImageURL = "https://r2.e-z.host/3d3d3396-6de1-4b53-9dfa-80964810a301/l5er5xu6.png"
	footerIconURL = "https://r2.e-z.host/3d3d3396-6de1-4b53-9dfa-80964810a301/5nt79rj0.png"
	footerText    = "Ayanamist System"

	colorAqua  = 0x8FD3FF
	colorWhite = 0xF5FAFF
	colorFail  = 0x9DB7C7
)

// Messenger is the slice of the platform client the verification flow needs.
type Messenger interface {
	dispatch.Responder
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
}

// Handler runs the arithmetic captcha flow end-to-end.
type Handler struct {
	registry *Registry
	client   Messenger
	metrics  *observability.Metrics
	store    ledger.Store

	guildID      string
	staffRoleID  string
	verifyRoleID string
}

func NewHandler(registry *Registry, client Messenger, metrics *observability.Metrics, store ledger.Store, guildID, staffRoleID, verifyRoleID string) *Handler {
	return &Handler{
		registry:     registry,
		client:       client,
		metrics:      metrics,
		store:        store,
		guildID:      guildID,
		staffRoleID:  staffRoleID,
		verifyRoleID: verifyRoleID,
	}
}

// HandleCommand posts the verification panel. Staff only.
func (h *Handler) HandleCommand(ctx context.Context, ic *platform.Interaction) error {
	if !ic.Member.HasRole(h.staffRoleID) {
		return dispatch.RespondEphemeral(ctx, h.client, ic, "権限がありません。")
	}

	return dispatch.Respond(ctx, h.client, ic, platform.InteractionResponse{
		Type: platform.ResponseChannelMessage,
		Data: &platform.ResponseData{
			Embeds: []platform.Embed{{
				Color: colorAqua,
				Image: &platform.EmbedImage{URL: guideImageURL},
			}},
			Components: platform.ButtonRow(platform.Button{
				Type:     platform.ComponentButton,
				Style:    platform.ButtonSuccess,
				Label:    "認証する",
				CustomID: "captcha:start",
			}),
		},
	})
}

// HandleComponent dispatches captcha component actions.
func (h *Handler) HandleComponent(ctx context.Context, ic *platform.Interaction, rest string) error {
	if rest == startAction {
		return h.onStart(ctx, ic)
	}
	if answered, ok := strings.CutPrefix(rest, answerPrefix); ok {
		return h.onAnswer(ctx, ic, answered)
	}
	logging.With("verify").Warn().Str("action", rest).Msg("unknown captcha action")
	return nil
}

func (h *Handler) onStart(ctx context.Context, ic *platform.Interaction) error {
	owner := ic.Invoker().ID

	p, err := h.registry.Start(owner)
	if err != nil {
		return dispatch.RespondEphemeral(ctx, h.client, ic, "すでに挑戦中です。")
	}

	buttons := make([]platform.Button, 0, len(p.Choices))
	for _, n := range p.Choices {
		buttons = append(buttons, platform.Button{
			Type:     platform.ComponentButton,
			Style:    platform.ButtonSecondary,
			Label:    strconv.Itoa(n),
			CustomID: fmt.Sprintf("captcha:ans:%d", n),
		})
	}

	return dispatch.Respond(ctx, h.client, ic, platform.InteractionResponse{
		Type: platform.ResponseChannelMessage,
		Data: &platform.ResponseData{
			Embeds: []platform.Embed{{
				Color:       colorWhite,
				Title:       "認証チャレンジ",
				Description: p.Question(),
				Footer:      &platform.EmbedFooter{Text: fmt.Sprintf("制限時間：%d秒", int(h.registry.TTL().Seconds()))},
			}},
			Components: platform.ButtonRow(buttons...),
			Flags:      platform.FlagEphemeral,
		},
	})
}

func (h *Handler) onAnswer(ctx context.Context, ic *platform.Interaction, answered string) error {
	submitted, err := strconv.Atoi(answered)
	if err != nil {
		logging.With("verify").Warn().Str("payload", answered).Msg("malformed answer payload")
		return nil
	}

	owner := ic.Invoker().ID
	outcome := h.registry.Answer(owner, submitted)
	h.metrics.IncChallengeOutcome(outcome.String())
	h.record(ctx, owner, outcome)

	switch outcome {
	case OutcomeNoActiveChallenge:
		return dispatch.RespondEphemeral(ctx, h.client, ic, "挑戦中のチャレンジがありません。")
	case OutcomeExpired:
		return h.respondResult(ctx, ic, colorFail, "⌛ 時間切れ", "もう一度やり直してください。")
	case OutcomeWrong:
		return h.respondResult(ctx, ic, colorFail, "❌ 不正解", "もう一度やり直してください。")
	}

	if err := h.client.AddMemberRole(ctx, h.guildID, owner, h.verifyRoleID); err != nil {
		logging.With("verify").Error().Err(err).Str("user_id", owner).Msg("role grant failed")
		return dispatch.RespondEphemeral(ctx, h.client, ic, "ロールの付与に失敗しました。しばらくしてからやり直してください。")
	}

	return h.respondResult(ctx, ic, colorAqua, "✅ 認証成功", "ロールを付与しました。")
}

func (h *Handler) respondResult(ctx context.Context, ic *platform.Interaction, color int, title, description string) error {
	return dispatch.Respond(ctx, h.client, ic, platform.InteractionResponse{
		Type: platform.ResponseChannelMessage,
		Data: &platform.ResponseData{
			Embeds: []platform.Embed{{
				Color:       color,
				Title:       title,
				Description: description,
				Footer:      &platform.EmbedFooter{Text: footerText, IconURL: footerIconURL},
			}},
			Flags: platform.FlagEphemeral,
		},
	})
}

func (h *Handler) record(ctx context.Context, owner string, outcome Outcome) {
	if h.store == nil {
		return
	}
	err := h.store.Append(ctx, ledger.Record{
		Kind:    ledger.KindVerification,
		UserID:  owner,
		Outcome: outcome.String(),
	})
	if err != nil {
		logging.With("verify").Error().Err(err).Msg("ledger append failed")
	}
}
