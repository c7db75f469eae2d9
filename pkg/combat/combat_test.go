package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
)

// scriptedRoller feeds predetermined rolls to the engine so tests can
// assert exact outcomes.
type scriptedRoller struct {
	t       *testing.T
	d20s    []int
	damages []*dice.Result
}

func (r *scriptedRoller) D20() int {
	require.NotEmpty(r.t, r.d20s, "scripted roller ran out of d20 values")
	v := r.d20s[0]
	r.d20s = r.d20s[1:]
	return v
}

func (r *scriptedRoller) Roll(expression string) (*dice.Result, error) {
	require.NotEmpty(r.t, r.damages, "scripted roller ran out of damage results")
	v := r.damages[0]
	r.damages = r.damages[1:]
	return v, nil
}

func (r *scriptedRoller) RollWithAdvantage() dice.AdvantageResult {
	a, b := r.D20(), r.D20()
	res := dice.AdvantageResult{Rolls: [2]int{a, b}, Kept: a}
	if b > a {
		res.Kept = b
	}
	return res
}

func (r *scriptedRoller) RollWithDisadvantage() dice.AdvantageResult {
	a, b := r.D20(), r.D20()
	res := dice.AdvantageResult{Rolls: [2]int{a, b}, Kept: a}
	if b < a {
		res.Kept = b
	}
	return res
}

// testSheet has +4 attack bonus (str 14, proficiency +2), +2 damage
// modifier, AC 12, dex modifier 0.
func testSheet(t *testing.T) *actor.CharacterSheet {
	t.Helper()
	sheet, err := actor.NewCharacterSheet("Brynn", "Human", "Fighter", actor.Stats{
		Strength: 14, Dexterity: 10, Constitution: 12,
		Intelligence: 10, Wisdom: 10, Charisma: 10,
	}, 12, 12)
	require.NoError(t, err)
	return sheet
}

func TestStart_InitiativeOrdering(t *testing.T) {
	// Player rolls 17, enemy (giant_rat, dex +2) rolls 8 -> totals 17 vs 10.
	roller := &scriptedRoller{t: t, d20s: []int{17, 8}}
	engine := NewEngine(roller)

	st, results, err := engine.Start(testSheet(t), "giant_rat")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, 17, results[0].Total)
	assert.Equal(t, 10, results[1].Total)
	assert.Equal(t, []string{"player", "giant_rat"}, st.TurnOrder)
	assert.Equal(t, PhasePlayerTurn, st.Phase)
	assert.Equal(t, 1, st.Round)
	assert.True(t, st.Active)
}

func TestStart_InitiativeTie_PlayerFirst(t *testing.T) {
	// Player 12+0, enemy 10+2: equal totals resolve with the player first.
	roller := &scriptedRoller{t: t, d20s: []int{12, 10}}
	engine := NewEngine(roller)

	st, _, err := engine.Start(testSheet(t), "giant_rat")
	require.NoError(t, err)
	assert.Equal(t, []string{"player", "giant_rat"}, st.TurnOrder)
	assert.Equal(t, PhasePlayerTurn, st.Phase)
}

func TestStart_EnemyWinsInitiative_TakesOpeningTurn(t *testing.T) {
	// Enemy wins initiative (3+0 vs 18+2) and attacks immediately:
	// rolls 2 (+4 = 6) vs player AC 12, a miss. Control returns to the
	// player with the round already advanced past the enemy's slot.
	roller := &scriptedRoller{t: t, d20s: []int{3, 18, 2}}
	engine := NewEngine(roller)

	st, _, err := engine.Start(testSheet(t), "giant_rat")
	require.NoError(t, err)

	assert.Equal(t, []string{"giant_rat", "player"}, st.TurnOrder)
	assert.Equal(t, PhasePlayerTurn, st.Phase)
	assert.Equal(t, 12, st.Player.HP)
	assert.Equal(t, 1, st.TurnIndex)
}

func TestStart_UnknownEnemy(t *testing.T) {
	engine := NewEngine(&scriptedRoller{t: t})
	_, _, err := engine.Start(testSheet(t), "tarrasque")
	assert.Error(t, err)
}

func TestExecuteAction_EndToEndVictory(t *testing.T) {
	// Full scenario: giant_rat has 7 HP. Player wins initiative, hits
	// with 14+4=18 for 6 damage (rat at 1 HP), rat answers with 5+4=9
	// vs AC 12 and misses, player hits with 11+4=15 for 5 damage.
	roller := &scriptedRoller{
		t:    t,
		d20s: []int{20, 1, 14, 5, 11},
		damages: []*dice.Result{
			{Expression: "1d6+2", Rolls: []int{4}, Modifier: 2, Total: 6},
			{Expression: "1d6+2", Rolls: []int{3}, Modifier: 2, Total: 5},
		},
	}
	engine := NewEngine(roller)

	st, _, err := engine.Start(testSheet(t), "giant_rat")
	require.NoError(t, err)

	result, err := engine.ExecuteAction(st, ActionAttack)
	require.NoError(t, err)
	assert.False(t, result.Ended)
	assert.Equal(t, 1, st.Enemy.HP)
	assert.Equal(t, 12, st.Player.HP)
	assert.Equal(t, 2, st.Round)

	result, err = engine.ExecuteAction(st, ActionAttack)
	require.NoError(t, err)
	assert.True(t, result.Ended)
	assert.Equal(t, OutcomeVictory, result.Outcome)
	assert.Equal(t, 0, st.Enemy.HP)
	assert.Equal(t, PhaseResolution, st.Phase)
	assert.False(t, st.Active)
}

func TestExecuteAction_AttackMiss(t *testing.T) {
	// Player rolls 5+4=9 vs AC 12: miss, no damage rolled. Enemy rolls
	// 10+4=14 vs AC 12 and hits for 3.
	roller := &scriptedRoller{
		t:    t,
		d20s: []int{20, 1, 5, 10},
		damages: []*dice.Result{
			{Expression: "1d4+2", Rolls: []int{1}, Modifier: 2, Total: 3},
		},
	}
	engine := NewEngine(roller)

	st, _, err := engine.Start(testSheet(t), "giant_rat")
	require.NoError(t, err)

	result, err := engine.ExecuteAction(st, ActionAttack)
	require.NoError(t, err)
	assert.False(t, result.Ended)
	assert.Equal(t, 7, st.Enemy.HP)
	assert.Equal(t, 9, st.Player.HP)
}

func TestExecuteAction_Defend_EnemyDisadvantage(t *testing.T) {
	// Defending forces the enemy to roll two d20 and keep the lower:
	// 15 and 6 -> kept 6, +4 = 10 vs AC 12, miss. Flag clears after.
	roller := &scriptedRoller{t: t, d20s: []int{20, 1, 15, 6}}
	engine := NewEngine(roller)

	st, _, err := engine.Start(testSheet(t), "giant_rat")
	require.NoError(t, err)

	result, err := engine.ExecuteAction(st, ActionDefend)
	require.NoError(t, err)
	assert.False(t, result.Ended)
	assert.Equal(t, 12, st.Player.HP)
	assert.False(t, st.PlayerDefending)

	var enemyAttack *LogEntry
	for i := range st.Log {
		if st.Log[i].Action == "attack_disadvantage" {
			enemyAttack = &st.Log[i]
		}
	}
	require.NotNil(t, enemyAttack)
	assert.ElementsMatch(t, []int{15, 6}, enemyAttack.Rolls)
	assert.Equal(t, 10, enemyAttack.Total)
	assert.False(t, enemyAttack.Hit)
}

func TestExecuteAction_FleeThreshold(t *testing.T) {
	t.Run("roll of exactly 12 escapes", func(t *testing.T) {
		roller := &scriptedRoller{t: t, d20s: []int{20, 1, 12}}
		engine := NewEngine(roller)

		st, _, err := engine.Start(testSheet(t), "giant_rat")
		require.NoError(t, err)

		result, err := engine.ExecuteAction(st, ActionFlee)
		require.NoError(t, err)
		assert.True(t, result.Ended)
		assert.Equal(t, OutcomeEscaped, result.Outcome)
		assert.False(t, st.Active)
	})

	t.Run("roll of 11 fails and draws an advantage attack", func(t *testing.T) {
		// Failed flee: enemy takes a free advantage attack (rolls 4 and
		// 9, keeps 9, +4 = 13, hit for 3), then its normal turn (rolls
		// 2, +4 = 6, miss).
		roller := &scriptedRoller{
			t:    t,
			d20s: []int{20, 1, 11, 4, 9, 2},
			damages: []*dice.Result{
				{Expression: "1d4+2", Rolls: []int{1}, Modifier: 2, Total: 3},
			},
		}
		engine := NewEngine(roller)

		st, _, err := engine.Start(testSheet(t), "giant_rat")
		require.NoError(t, err)

		result, err := engine.ExecuteAction(st, ActionFlee)
		require.NoError(t, err)
		assert.False(t, result.Ended)
		assert.Equal(t, 9, st.Player.HP)

		var actions []string
		for _, entry := range result.Entries {
			actions = append(actions, entry.Action)
		}
		assert.Equal(t, []string{"flee", "attack_advantage", "attack"}, actions)
	})
}

func TestExecuteAction_PlayerDefeat(t *testing.T) {
	// One massive enemy hit drops the player; HP floors at 0.
	roller := &scriptedRoller{
		t:    t,
		d20s: []int{20, 1, 3, 19},
		damages: []*dice.Result{
			{Expression: "1d4+2", Rolls: []int{4}, Modifier: 2, Total: 100},
		},
	}
	engine := NewEngine(roller)

	st, _, err := engine.Start(testSheet(t), "giant_rat")
	require.NoError(t, err)

	result, err := engine.ExecuteAction(st, ActionAttack)
	require.NoError(t, err)
	assert.True(t, result.Ended)
	assert.Equal(t, OutcomeDefeat, result.Outcome)
	assert.Equal(t, 0, st.Player.HP)
}

func TestExecuteAction_InvalidAfterResolution(t *testing.T) {
	roller := &scriptedRoller{t: t, d20s: []int{20, 1, 12}}
	engine := NewEngine(roller)

	st, _, err := engine.Start(testSheet(t), "giant_rat")
	require.NoError(t, err)

	_, err = engine.ExecuteAction(st, ActionFlee)
	require.NoError(t, err)

	logLen := len(st.Log)
	_, err = engine.ExecuteAction(st, ActionAttack)
	require.Error(t, err)

	var invalid *ErrInvalidAction
	assert.ErrorAs(t, err, &invalid)
	assert.Len(t, st.Log, logLen, "invalid action must not mutate state")
}

func TestExecuteAction_UnknownAction(t *testing.T) {
	roller := &scriptedRoller{t: t, d20s: []int{20, 1}}
	engine := NewEngine(roller)

	st, _, err := engine.Start(testSheet(t), "giant_rat")
	require.NoError(t, err)

	_, err = engine.ExecuteAction(st, Action("sing"))
	assert.Error(t, err)
}

func TestParseAction(t *testing.T) {
	action, ok := ParseAction("attack")
	assert.True(t, ok)
	assert.Equal(t, ActionAttack, action)

	_, ok = ParseAction("dance")
	assert.False(t, ok)
}
