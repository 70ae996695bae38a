package quiz

import (
	"context"
	"fmt"
	"time"

	"github.com/ent0n29/ayanamist/internal/dispatch"
	"github.com/ent0n29/ayanamist/internal/imaging"
	"github.com/ent0n29/ayanamist/internal/ledger"
	"github.com/ent0n29/ayanamist/internal/logging"
	"github.com/ent0n29/ayanamist/internal/observability"
	"github.com/ent0n29/ayanamist/internal/platform"
)

// Messenger is the slice of the platform client the quiz needs.
type Messenger interface {
	dispatch.Responder
	CreateFollowupMessage(ctx context.Context, applicationID, token string, msg platform.MessageCreate) (*platform.Message, error)
	CreateMessage(ctx context.Context, channelID string, msg platform.MessageCreate) (*platform.Message, error)
}

// SubjectProvider serves quiz content. Caching is the provider's concern.
type SubjectProvider interface {
	RandomSubjectID(ctx context.Context) (int, error)
	DisplayName(ctx context.Context, id int) (string, error)
	Description(ctx context.Context, id int) (string, error)
	SpriteImage(ctx context.Context, id int) ([]byte, error)
}

// Subscriber taps the live channel message stream.
type Subscriber interface {
	Subscribe(channelID string) (<-chan platform.Message, func())
}

// Handler runs the silhouette quiz flow end-to-end.
type Handler struct {
	client   Messenger
	provider SubjectProvider
	broker   Subscriber
	metrics  *observability.Metrics
	store    ledger.Store

	applicationID string
	timeLimit     time.Duration
	maxRetry      int
}

func NewHandler(client Messenger, provider SubjectProvider, broker Subscriber, metrics *observability.Metrics, store ledger.Store, applicationID string, timeLimit time.Duration, maxRetry int) *Handler {
	return &Handler{
		client:        client,
		provider:      provider,
		broker:        broker,
		metrics:       metrics,
		store:         store,
		applicationID: applicationID,
		timeLimit:     timeLimit,
		maxRetry:      maxRetry,
	}
}

// HandleCommand runs one full round. It blocks its task until the round
// resolves or the time limit elapses; other events keep flowing meanwhile.
func (h *Handler) HandleCommand(ctx context.Context, ic *platform.Interaction) error {
	logger := logging.With("quiz")

	// Acknowledge immediately; fetching the subject can take a moment.
	if err := dispatch.Respond(ctx, h.client, ic, platform.InteractionResponse{
		Type: platform.ResponseDeferredMessage,
	}); err != nil {
		return err
	}

	id, err := h.provider.RandomSubjectID(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("fetch subject failed")
		return h.followupText(ctx, ic, "ポケモンが見つかりませんでした")
	}
	name, err := h.provider.DisplayName(ctx, id)
	if err != nil {
		logger.Error().Err(err).Int("subject_id", id).Msg("fetch subject name failed")
		return h.followupText(ctx, ic, "ポケモンの名前が取得できませんでした")
	}
	spriteBytes, err := h.provider.SpriteImage(ctx, id)
	if err != nil {
		logger.Error().Err(err).Int("subject_id", id).Msg("fetch sprite failed")
		return h.followupText(ctx, ic, "ポケモンの画像が取得できませんでした")
	}
	description, err := h.provider.Description(ctx, id)
	if err != nil {
		logger.Error().Err(err).Int("subject_id", id).Msg("fetch description failed")
		description = ""
	}

	sprite, err := imaging.Decode(spriteBytes)
	if err != nil {
		logger.Error().Err(err).Int("subject_id", id).Msg("decode sprite failed")
		return h.followupText(ctx, ic, "ポケモンの画像が取得できませんでした")
	}
	silhouette, err := imaging.Encode(imaging.Silhouette(sprite))
	if err != nil {
		return fmt.Errorf("encode silhouette: %w", err)
	}
	revealBytes, err := imaging.Encode(imaging.Flatten(sprite))
	if err != nil {
		return fmt.Errorf("encode reveal: %w", err)
	}

	// Subscribe before posting the prompt so an instant reply cannot slip by.
	stream, cancel := h.broker.Subscribe(ic.ChannelID)
	defer cancel()

	prompt, err := h.client.CreateFollowupMessage(ctx, h.applicationID, ic.Token, platform.MessageCreate{
		Content: fmt.Sprintf(
			"だーれだ？\n返信で答えてみよう（ひらがな/カタカナ/ローマ字）\n制限時間は%d分、%d回まで回答できるよ\nどうしてもわかんないよ！ってときは「%s」って返信してね（コマンド実行者のみ）",
			int(h.timeLimit.Minutes()), h.maxRetry, giveUpToken,
		),
		Files: []platform.File{{Name: "pokemon.png", Contents: silhouette}},
	})
	if err != nil {
		return fmt.Errorf("post prompt: %w", err)
	}

	round := &Round{
		SubjectID:   id,
		Name:        name,
		Description: description,
		InvokerID:   ic.Invoker().ID,
		ChannelID:   ic.ChannelID,
		AnchorID:    prompt.ID,
		MaxRetry:    h.maxRetry,
	}
	collector := NewCollector(stream, prompt.ID, h.timeLimit)

	outcome, err := round.Run(ctx, collector, h.client, platform.File{Name: "pokemon.png", Contents: revealBytes})
	h.metrics.IncQuizOutcome(string(outcome))
	h.record(ctx, round, outcome)
	return err
}

func (h *Handler) followupText(ctx context.Context, ic *platform.Interaction, content string) error {
	_, err := h.client.CreateFollowupMessage(ctx, h.applicationID, ic.Token, platform.MessageCreate{Content: content})
	return err
}

func (h *Handler) record(ctx context.Context, r *Round, outcome Outcome) {
	if h.store == nil {
		return
	}
	err := h.store.Append(ctx, ledger.Record{
		Kind:    ledger.KindQuizRound,
		UserID:  r.InvokerID,
		Subject: r.Name,
		Outcome: string(outcome),
	})
	if err != nil {
		logging.With("quiz").Error().Err(err).Msg("ledger append failed")
	}
}
