// Package session defines the durable record of one player's adventure
// and the trimming invariants that keep it bounded.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/combat"
)

// Phase is the session's position in the adventure arc.
type Phase string

const (
	// PhaseOnboarding covers character creation; turns route to the
	// guide collaborator only.
	PhaseOnboarding Phase = "onboarding"
	// PhaseAdventure is normal play.
	PhaseAdventure Phase = "adventure"
	// PhaseCombat is active while an encounter is unresolved.
	PhaseCombat Phase = "combat"
)

const (
	// MaxHistory bounds conversation history, oldest dropped first.
	MaxHistory = 20
	// MaxRecentCollaborators bounds the routing ledger.
	MaxRecentCollaborators = 5
	// MaxNotableMoments bounds the notable-moment ledger; the lowest
	// significance entry is evicted when it overflows.
	MaxNotableMoments = 15
	// OptionCount is the fixed size of the player-facing option set.
	OptionCount = 3
)

// Exchange is one turn's player action and the narrative it produced.
type Exchange struct {
	PlayerAction string    `json:"player_action"`
	Narrative    string    `json:"narrative"`
	Timestamp    time.Time `json:"timestamp"`
}

// NotableMoment is a significance-ranked story event kept for long-range
// continuity without unbounded history growth.
type NotableMoment struct {
	Description  string    `json:"description"`
	Significance int       `json:"significance"`
	Turn         int       `json:"turn"`
	CreatedAt    time.Time `json:"created_at"`
}

// State is the full state of one adventure session. It is owned
// exclusively by its session id; no cross-session sharing.
type State struct {
	ID                  uuid.UUID             `json:"id"`
	Phase               Phase                 `json:"phase"`
	TurnCount           int                   `json:"turn_count"`
	Character           *actor.CharacterSheet `json:"character,omitempty"`
	ActiveQuest         string                `json:"active_quest,omitempty"`
	History             []Exchange            `json:"history"`
	Options             []string              `json:"options,omitempty"`
	RecentCollaborators []string              `json:"recent_collaborators,omitempty"`
	NotableMoments      []NotableMoment       `json:"notable_moments,omitempty"`
	Combat              *combat.State         `json:"combat,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// New creates a session in the onboarding phase.
func New() *State {
	now := time.Now().UTC()
	return &State{
		ID:        uuid.New(),
		Phase:     PhaseOnboarding,
		History:   make([]Exchange, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddExchange appends one turn to the conversation history, dropping the
// oldest entries to keep the history within MaxHistory.
func (s *State) AddExchange(playerAction, narrative string) {
	s.History = append(s.History, Exchange{
		PlayerAction: playerAction,
		Narrative:    narrative,
		Timestamp:    time.Now().UTC(),
	})
	if len(s.History) > MaxHistory {
		s.History = s.History[len(s.History)-MaxHistory:]
	}
	s.TurnCount++
}

// SetOptions replaces the current option set.
func (s *State) SetOptions(options []string) {
	s.Options = options
}

// SetPhase moves the session to a new phase.
func (s *State) SetPhase(phase Phase) {
	s.Phase = phase
}

// SetCharacterSheet attaches the player's character. Onboarding ends
// once a character exists.
func (s *State) SetCharacterSheet(sheet *actor.CharacterSheet) {
	s.Character = sheet
	if s.Phase == PhaseOnboarding && sheet != nil {
		s.Phase = PhaseAdventure
	}
}

// SetCombatState attaches or clears the active encounter and keeps the
// phase consistent with it.
func (s *State) SetCombatState(cs *combat.State) {
	s.Combat = cs
	switch {
	case cs != nil && cs.Active:
		s.Phase = PhaseCombat
	case s.Phase == PhaseCombat:
		s.Phase = PhaseAdventure
	}
}

// InCombat reports whether an encounter is live.
func (s *State) InCombat() bool {
	return s.Combat != nil && s.Combat.Active
}

// UpdateHealth applies a hit-point delta to the character, clamped to
// [0, max] by the sheet.
func (s *State) UpdateHealth(delta int) {
	if s.Character == nil {
		return
	}
	if delta < 0 {
		s.Character.TakeDamage(-delta)
	} else {
		s.Character.Heal(delta)
	}
}

// RecordCollaborators appends the collaborators used this turn to the
// ledger, keeping only the most recent MaxRecentCollaborators entries.
func (s *State) RecordCollaborators(names ...string) {
	s.RecentCollaborators = append(s.RecentCollaborators, names...)
	if len(s.RecentCollaborators) > MaxRecentCollaborators {
		s.RecentCollaborators = s.RecentCollaborators[len(s.RecentCollaborators)-MaxRecentCollaborators:]
	}
}

// AddNotableMoment records a story event. When the ledger overflows, the
// entry with the lowest significance is dropped; among equals, the
// oldest goes first.
func (s *State) AddNotableMoment(description string, significance int) {
	s.NotableMoments = append(s.NotableMoments, NotableMoment{
		Description:  description,
		Significance: significance,
		Turn:         s.TurnCount,
		CreatedAt:    time.Now().UTC(),
	})
	if len(s.NotableMoments) <= MaxNotableMoments {
		return
	}

	lowest := 0
	for i, m := range s.NotableMoments {
		if m.Significance < s.NotableMoments[lowest].Significance {
			lowest = i
		}
	}
	s.NotableMoments = append(s.NotableMoments[:lowest], s.NotableMoments[lowest+1:]...)
}

// RecentHistory returns up to n most recent exchanges, oldest first.
func (s *State) RecentHistory(n int) []Exchange {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if n > len(s.History) {
		n = len(s.History)
	}
	return s.History[len(s.History)-n:]
}
