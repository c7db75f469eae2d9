// Package director decides which narrative collaborators run each turn
// and executes them as a sequential pipeline with context accumulation.
package director

import (
	"math/rand"
	"strings"
	"time"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// Collaborator names used in routing decisions and the session ledger.
const (
	CollaboratorNarrator    = "narrator"
	CollaboratorMechanic    = "mechanic"
	CollaboratorCommentator = "commentator"
	CollaboratorGuide       = "guide"
)

// DefaultCommentaryChance is the per-turn probability of including the
// commentator when not suppressed by cooldown or combat.
const DefaultCommentaryChance = 0.15

// commentaryCooldown is how many recent ledger entries suppress the
// commentator when it appears among them.
const commentaryCooldown = 3

// mechanicsKeywords trigger the mechanics collaborator outside combat.
var mechanicsKeywords = map[string]bool{
	"attack": true, "fight": true, "roll": true, "cast": true,
	"defend": true, "dodge": true, "swing": true, "shoot": true,
	"hit": true, "strike": true,
}

// Decision is the routing output for one turn. It is not persisted; the
// recent-collaborator ledger is the only trace it leaves.
type Decision struct {
	Collaborators     []string `json:"collaborators"`
	IncludeCommentary bool     `json:"include_commentary"`
	Reason            string   `json:"reason"`
}

// Names returns every collaborator this decision will invoke, in order.
func (d Decision) Names() []string {
	names := append([]string(nil), d.Collaborators...)
	if d.IncludeCommentary {
		names = append(names, CollaboratorCommentator)
	}
	return names
}

// Policy maps (action, phase, recent collaborators) to a Decision. It is
// pure apart from consuming its random source.
type Policy struct {
	rng *rand.Rand

	// CommentaryChance is exposed so tests can pin the draw.
	CommentaryChance float64
}

// NewPolicy creates a Policy. A nil rng gets a time-seeded one.
func NewPolicy(rng *rand.Rand) *Policy {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Policy{rng: rng, CommentaryChance: DefaultCommentaryChance}
}

// Route applies the routing rules in order. recent is the ledger of
// collaborator names from prior turns, oldest first.
func (p *Policy) Route(action string, phase session.Phase, recent []string) Decision {
	// Rule 1: onboarding bypasses the rest of the pipeline.
	if phase == session.PhaseOnboarding {
		return Decision{
			Collaborators: []string{CollaboratorGuide},
			Reason:        "onboarding",
		}
	}

	// Rule 2: the narrator always runs.
	d := Decision{
		Collaborators: []string{CollaboratorNarrator},
		Reason:        "narrative",
	}

	// Rule 3: combat phase or a mechanics keyword adds the mechanic.
	inCombat := phase == session.PhaseCombat
	switch {
	case inCombat:
		d.Collaborators = append(d.Collaborators, CollaboratorMechanic)
		d.Reason += ",mechanics:combat"
	case containsMechanicsKeyword(action):
		d.Collaborators = append(d.Collaborators, CollaboratorMechanic)
		d.Reason += ",mechanics:keyword"
	}

	// Rule 4: probabilistic commentary, suppressed in combat and while
	// the commentator is on cooldown.
	if !inCombat && !onCooldown(recent) && p.rng.Float64() < p.CommentaryChance {
		d.IncludeCommentary = true
		d.Reason += ",commentary"
	}

	return d
}

// onCooldown reports whether the commentator appears in the last
// commentaryCooldown ledger entries.
func onCooldown(recent []string) bool {
	start := len(recent) - commentaryCooldown
	if start < 0 {
		start = 0
	}
	for _, name := range recent[start:] {
		if name == CollaboratorCommentator {
			return true
		}
	}
	return false
}

func containsMechanicsKeyword(action string) bool {
	for _, word := range strings.Fields(strings.ToLower(action)) {
		word = strings.Trim(word, ".,!?;:'\"")
		if mechanicsKeywords[word] {
			return true
		}
	}
	return false
}
