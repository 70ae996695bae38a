package quiz

import (
	"context"
	"fmt"
	"strings"

	"github.com/ent0n29/ayanamist/internal/kana"
	"github.com/ent0n29/ayanamist/internal/logging"
	"github.com/ent0n29/ayanamist/internal/platform"
)

// Outcome is the terminal state of one guessing round.
type Outcome string

const (
	OutcomeSolved           Outcome = "solved"
	OutcomeGaveUp           Outcome = "gave_up"
	OutcomeRetriesExhausted Outcome = "retries_exhausted"
	OutcomeTimedOut         Outcome = "timed_out"
)

const giveUpToken = "ギブアップ"

// MessagePoster posts channel messages.
type MessagePoster interface {
	CreateMessage(ctx context.Context, channelID string, msg platform.MessageCreate) (*platform.Message, error)
}

// Round holds the state of one guessing game, owned entirely by the command
// invocation that created it.
type Round struct {
	SubjectID   int
	Name        string
	Description string
	InvokerID   string
	ChannelID   string
	AnchorID    string
	MaxRetry    int

	normalized string
}

// revealText is the shared tail of every terminal message.
func (r *Round) revealText() string {
	flavor := ""
	if r.Description != "" {
		flavor = "\n説明：" + strings.ReplaceAll(r.Description, "\n", "　")
	}
	return fmt.Sprintf("%sでした！\n\n全国図鑑番号：%d%s", r.Name, r.SubjectID, flavor)
}

// Run consumes replies until a terminal condition. Every terminal state posts
// exactly one reveal message, differing only in the leading sentence.
func (r *Round) Run(ctx context.Context, collector *Collector, poster MessagePoster, reveal platform.File) (Outcome, error) {
	r.normalized = kana.Fold(r.Name)
	giveUp := kana.Fold(giveUpToken)
	retry := 0

	for {
		m, ok := collector.Next(ctx)
		if !ok {
			err := r.postReveal(ctx, poster, "時間切れ！", r.AnchorID, reveal)
			return OutcomeTimedOut, err
		}

		answer := kana.Fold(m.Content)

		if answer == r.normalized {
			err := r.postReveal(ctx, poster, "あたり！", m.ID, reveal)
			return OutcomeSolved, err
		}

		// The give-up token only counts from the user who started the round;
		// from anyone else it is an ordinary wrong guess.
		if answer == giveUp && m.Author.ID == r.InvokerID {
			err := r.postReveal(ctx, poster, "ざんねん！", m.ID, reveal)
			return OutcomeGaveUp, err
		}

		if err := r.replyWrong(ctx, poster, m.ID); err != nil {
			logging.With("quiz").Error().Err(err).Msg("wrong-guess reply failed")
		}

		retry++
		if retry > r.MaxRetry {
			err := r.postReveal(ctx, poster, "解答可能回数がなくなりました", m.ID, reveal)
			return OutcomeRetriesExhausted, err
		}
	}
}

func (r *Round) postReveal(ctx context.Context, poster MessagePoster, lead, refMessageID string, reveal platform.File) error {
	_, err := poster.CreateMessage(ctx, r.ChannelID, platform.MessageCreate{
		Content:          lead + "\n" + r.revealText(),
		MessageReference: &platform.MessageReference{MessageID: refMessageID, ChannelID: r.ChannelID},
		AllowedMentions:  platform.NoMentions(),
		Files:            []platform.File{reveal},
	})
	if err != nil {
		return fmt.Errorf("post reveal: %w", err)
	}
	return nil
}

func (r *Round) replyWrong(ctx context.Context, poster MessagePoster, refMessageID string) error {
	_, err := poster.CreateMessage(ctx, r.ChannelID, platform.MessageCreate{
		Content:          "はずれ！",
		MessageReference: &platform.MessageReference{MessageID: refMessageID, ChannelID: r.ChannelID},
		AllowedMentions:  platform.NoMentions(),
	})
	return err
}
