package quiz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ent0n29/ayanamist/internal/platform"
)

type fakePoster struct {
	messages []platform.MessageCreate
}

func (p *fakePoster) CreateMessage(_ context.Context, _ string, msg platform.MessageCreate) (*platform.Message, error) {
	p.messages = append(p.messages, msg)
	return &platform.Message{ID: "posted"}, nil
}

func testRound() *Round {
	return &Round{
		SubjectID: 25,
		Name:      "フシギダネ",
		InvokerID: "invoker",
		ChannelID: "chan",
		AnchorID:  "anchor",
		MaxRetry:  2,
	}
}

func runRound(t *testing.T, r *Round, msgs ...platform.Message) (Outcome, *fakePoster) {
	t.Helper()
	stream := make(chan platform.Message, len(msgs))
	for _, m := range msgs {
		stream <- m
	}
	close(stream)

	poster := &fakePoster{}
	collector := NewCollector(stream, r.AnchorID, time.Second)
	outcome, err := r.Run(context.Background(), collector, poster, platform.File{Name: "pokemon.png"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return outcome, poster
}

func answer(authorID, content string) platform.Message {
	return platform.Message{
		ID:               "m-" + content,
		Content:          content,
		Author:           platform.User{ID: authorID},
		MessageReference: &platform.MessageReference{MessageID: "anchor"},
	}
}

func TestRoundSolvedAcrossScripts(t *testing.T) {
	for _, guess := range []string{"フシギダネ", "ふしぎだね", "fushigidane"} {
		outcome, poster := runRound(t, testRound(), answer("someone", guess))
		if outcome != OutcomeSolved {
			t.Fatalf("guess %q: outcome = %q, want solved", guess, outcome)
		}
		if len(poster.messages) != 1 {
			t.Fatalf("guess %q: posted %d messages, want 1", guess, len(poster.messages))
		}
		reveal := poster.messages[0]
		if !strings.HasPrefix(reveal.Content, "あたり！") {
			t.Fatalf("reveal = %q", reveal.Content)
		}
		if !strings.Contains(reveal.Content, "フシギダネでした！") {
			t.Fatalf("reveal missing subject name: %q", reveal.Content)
		}
		if !strings.Contains(reveal.Content, "全国図鑑番号：25") {
			t.Fatalf("reveal missing dex number: %q", reveal.Content)
		}
		if len(reveal.Files) != 1 {
			t.Fatalf("reveal carries %d files, want 1", len(reveal.Files))
		}
	}
}

func TestRoundAnyoneCanSolve(t *testing.T) {
	outcome, _ := runRound(t, testRound(), answer("bystander", "フシギダネ"))
	if outcome != OutcomeSolved {
		t.Fatalf("outcome = %q, want solved", outcome)
	}
}

func TestRoundWrongThenSolved(t *testing.T) {
	outcome, poster := runRound(t, testRound(),
		answer("a", "ピカチュウ"),
		answer("b", "フシギダネ"),
	)
	if outcome != OutcomeSolved {
		t.Fatalf("outcome = %q, want solved", outcome)
	}
	if len(poster.messages) != 2 {
		t.Fatalf("posted %d messages, want 2", len(poster.messages))
	}
	if poster.messages[0].Content != "はずれ！" {
		t.Fatalf("wrong-guess reply = %q", poster.messages[0].Content)
	}
	if poster.messages[0].MessageReference == nil || poster.messages[0].MessageReference.MessageID != "m-ピカチュウ" {
		t.Fatalf("wrong-guess reply should reference the guess message")
	}
}

func TestRoundRetriesExhausted(t *testing.T) {
	outcome, poster := runRound(t, testRound(),
		answer("a", "one"),
		answer("a", "two"),
		answer("a", "three"),
	)
	if outcome != OutcomeRetriesExhausted {
		t.Fatalf("outcome = %q, want retries_exhausted", outcome)
	}
	// Every guess gets its はずれ！ reply, the last one followed by the reveal.
	if len(poster.messages) != 4 {
		t.Fatalf("posted %d messages, want 4", len(poster.messages))
	}
	for i := 0; i < 3; i++ {
		if poster.messages[i].Content != "はずれ！" {
			t.Fatalf("message %d = %q, want はずれ！", i, poster.messages[i].Content)
		}
	}
	last := poster.messages[3]
	if !strings.HasPrefix(last.Content, "解答可能回数がなくなりました") {
		t.Fatalf("reveal = %q", last.Content)
	}
	if !strings.Contains(last.Content, "フシギダネでした！") {
		t.Fatalf("reveal should name the subject: %q", last.Content)
	}
}

func TestRoundGiveUpFromInvoker(t *testing.T) {
	outcome, poster := runRound(t, testRound(), answer("invoker", "ギブアップ"))
	if outcome != OutcomeGaveUp {
		t.Fatalf("outcome = %q, want gave_up", outcome)
	}
	if !strings.HasPrefix(poster.messages[0].Content, "ざんねん！") {
		t.Fatalf("reveal = %q", poster.messages[0].Content)
	}
}

func TestRoundGiveUpAcceptsRomaji(t *testing.T) {
	outcome, _ := runRound(t, testRound(), answer("invoker", "gibuappu"))
	if outcome != OutcomeGaveUp {
		t.Fatalf("outcome = %q, want gave_up", outcome)
	}
}

func TestRoundGiveUpFromOthersIsWrongGuess(t *testing.T) {
	outcome, poster := runRound(t, testRound(),
		answer("bystander", "ギブアップ"),
		answer("invoker", "フシギダネ"),
	)
	if outcome != OutcomeSolved {
		t.Fatalf("outcome = %q, want solved", outcome)
	}
	if poster.messages[0].Content != "はずれ！" {
		t.Fatalf("non-invoker give-up reply = %q", poster.messages[0].Content)
	}
}

func TestRoundTimedOut(t *testing.T) {
	r := testRound()
	stream := make(chan platform.Message)
	poster := &fakePoster{}
	collector := NewCollector(stream, r.AnchorID, 20*time.Millisecond)

	outcome, err := r.Run(context.Background(), collector, poster, platform.File{Name: "pokemon.png"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome != OutcomeTimedOut {
		t.Fatalf("outcome = %q, want timed_out", outcome)
	}
	if len(poster.messages) != 1 {
		t.Fatalf("posted %d messages, want 1", len(poster.messages))
	}
	reveal := poster.messages[0]
	if !strings.HasPrefix(reveal.Content, "時間切れ！") {
		t.Fatalf("reveal = %q", reveal.Content)
	}
	if reveal.MessageReference == nil || reveal.MessageReference.MessageID != "anchor" {
		t.Fatalf("timeout reveal should reference the prompt message")
	}
}

func TestRoundRevealIncludesDescription(t *testing.T) {
	r := testRound()
	r.Description = "うまれたときから\nせなかに　たねが"
	outcome, poster := runRound(t, r, answer("a", "フシギダネ"))
	if outcome != OutcomeSolved {
		t.Fatalf("outcome = %q", outcome)
	}
	content := poster.messages[0].Content
	if !strings.Contains(content, "説明：うまれたときから　せなかに　たねが") {
		t.Fatalf("reveal description not flattened: %q", content)
	}
}

func TestRoundSuppressesMentions(t *testing.T) {
	_, poster := runRound(t, testRound(), answer("a", "フシギダネ"))
	am := poster.messages[0].AllowedMentions
	if am == nil || len(am.Parse) != 0 || am.RepliedUser {
		t.Fatalf("reveal should suppress all mentions, got %+v", am)
	}
}
