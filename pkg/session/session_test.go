package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/combat"
)

func TestNew(t *testing.T) {
	s := New()
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", s.ID.String())
	assert.Equal(t, PhaseOnboarding, s.Phase)
	assert.Empty(t, s.History)
	assert.Zero(t, s.TurnCount)
}

func TestAddExchange_HistoryCap(t *testing.T) {
	s := New()
	for i := 1; i <= 25; i++ {
		s.AddExchange(fmt.Sprintf("action %d", i), fmt.Sprintf("narrative %d", i))
	}

	require.Len(t, s.History, MaxHistory)
	assert.Equal(t, 25, s.TurnCount)

	// The 20 most recent exchanges survive, oldest first.
	assert.Equal(t, "action 6", s.History[0].PlayerAction)
	assert.Equal(t, "action 25", s.History[len(s.History)-1].PlayerAction)
}

func TestSetCharacterSheet_EndsOnboarding(t *testing.T) {
	s := New()
	sheet, err := actor.NewCharacterSheet("Brynn", "Human", "Fighter", actor.Stats{
		Strength: 14, Dexterity: 12, Constitution: 13,
		Intelligence: 10, Wisdom: 11, Charisma: 9,
	}, 12, 13)
	require.NoError(t, err)

	s.SetCharacterSheet(sheet)
	assert.Equal(t, PhaseAdventure, s.Phase)
	assert.Equal(t, "Brynn", s.Character.Name)
}

func TestSetCombatState_PhaseTracking(t *testing.T) {
	s := New()
	s.SetPhase(PhaseAdventure)

	s.SetCombatState(&combat.State{Active: true})
	assert.Equal(t, PhaseCombat, s.Phase)
	assert.True(t, s.InCombat())

	s.SetCombatState(nil)
	assert.Equal(t, PhaseAdventure, s.Phase)
	assert.False(t, s.InCombat())
}

func TestUpdateHealth_Clamps(t *testing.T) {
	s := New()
	sheet, err := actor.NewCharacterSheet("Brynn", "Human", "Fighter", actor.Stats{
		Strength: 14, Dexterity: 12, Constitution: 13,
		Intelligence: 10, Wisdom: 11, Charisma: 9,
	}, 10, 13)
	require.NoError(t, err)
	s.SetCharacterSheet(sheet)

	s.UpdateHealth(-4)
	assert.Equal(t, 6, s.Character.HP)

	s.UpdateHealth(-100)
	assert.Equal(t, 0, s.Character.HP)

	s.UpdateHealth(100)
	assert.Equal(t, 10, s.Character.HP)

	// No character: no-op rather than panic.
	bare := New()
	bare.UpdateHealth(-5)
}

func TestRecordCollaborators_LedgerCap(t *testing.T) {
	s := New()
	s.RecordCollaborators("narrator")
	s.RecordCollaborators("narrator", "mechanic")
	s.RecordCollaborators("commentator")
	s.RecordCollaborators("narrator", "narrator")

	require.Len(t, s.RecentCollaborators, MaxRecentCollaborators)
	assert.Equal(t, []string{"mechanic", "commentator", "narrator", "narrator"},
		s.RecentCollaborators[1:])
}

func TestAddNotableMoment_EvictsLowestSignificance(t *testing.T) {
	s := New()
	for i := 1; i <= MaxNotableMoments; i++ {
		s.AddNotableMoment(fmt.Sprintf("moment %d", i), i)
	}
	require.Len(t, s.NotableMoments, MaxNotableMoments)

	// The 16th moment forces out the lowest-significance entry
	// (moment 1, significance 1).
	s.AddNotableMoment("the dragon falls", 100)
	require.Len(t, s.NotableMoments, MaxNotableMoments)
	for _, m := range s.NotableMoments {
		assert.NotEqual(t, "moment 1", m.Description)
	}
	assert.Equal(t, "the dragon falls", s.NotableMoments[len(s.NotableMoments)-1].Description)
}

func TestAddNotableMoment_TieDropsOldest(t *testing.T) {
	s := New()
	for i := 1; i <= MaxNotableMoments+1; i++ {
		s.AddNotableMoment(fmt.Sprintf("moment %d", i), 5)
	}
	require.Len(t, s.NotableMoments, MaxNotableMoments)
	assert.Equal(t, "moment 2", s.NotableMoments[0].Description)
}

func TestRecentHistory(t *testing.T) {
	s := New()
	for i := 1; i <= 5; i++ {
		s.AddExchange(fmt.Sprintf("action %d", i), "...")
	}

	recent := s.RecentHistory(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "action 3", recent[0].PlayerAction)
	assert.Equal(t, "action 5", recent[2].PlayerAction)

	assert.Len(t, s.RecentHistory(100), 5)
	assert.Nil(t, s.RecentHistory(0))
}
