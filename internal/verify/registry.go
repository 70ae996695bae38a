package verify

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

// ErrAlreadyActive reports that the owner still has a live challenge.
var ErrAlreadyActive = errors.New("challenge already active")

// Outcome classifies an answer submission.
type Outcome int

const (
	OutcomeNoActiveChallenge Outcome = iota
	OutcomeExpired
	OutcomeWrong
	OutcomeCorrect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	case OutcomeExpired:
		return "expired"
	default:
		return "no_active_challenge"
	}
}

type challenge struct {
	correct   int
	expiresAt time.Time
}

const shardCount = 16

type shard struct {
	mu         sync.Mutex
	challenges map[string]challenge
}

// Registry is a concurrent, TTL-scoped store of pending challenges, one per
// owner. Entries are sharded by owner so unrelated owners never contend on
// one lock. Expired entries are evicted lazily on access; there is no
// background sweeper, so memory stays proportional to concurrently-pending
// challenges.
type Registry struct {
	ttl    time.Duration
	shards [shardCount]shard
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 20 * time.Second
	}
	r := &Registry{ttl: ttl}
	for i := range r.shards {
		r.shards[i].challenges = make(map[string]challenge)
	}
	return r
}

// TTL returns the configured challenge lifetime.
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

func (r *Registry) shardFor(owner string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(owner))
	return &r.shards[h.Sum32()%shardCount]
}

// Start creates a fresh challenge for the owner. A live challenge causes
// ErrAlreadyActive without mutation; an expired leftover is replaced.
func (r *Registry) Start(owner string) (Puzzle, error) {
	sh := r.shardFor(owner)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := time.Now()
	if existing, ok := sh.challenges[owner]; ok {
		if now.Before(existing.expiresAt) || now.Equal(existing.expiresAt) {
			return Puzzle{}, ErrAlreadyActive
		}
		delete(sh.challenges, owner)
	}

	p := generatePuzzle()
	sh.challenges[owner] = challenge{correct: p.Correct, expiresAt: now.Add(r.ttl)}
	return p, nil
}

// Answer consumes the owner's challenge and classifies the submission. The
// challenge is removed whatever the outcome, so a second submission always
// observes OutcomeNoActiveChallenge.
func (r *Registry) Answer(owner string, submitted int) Outcome {
	sh := r.shardFor(owner)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	ch, ok := sh.challenges[owner]
	if !ok {
		return OutcomeNoActiveChallenge
	}
	delete(sh.challenges, owner)

	if time.Now().After(ch.expiresAt) {
		return OutcomeExpired
	}
	if submitted != ch.correct {
		return OutcomeWrong
	}
	return OutcomeCorrect
}
