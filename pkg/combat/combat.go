// Package combat implements the encounter state machine: initiative,
// turn order, attack/defend/flee resolution, and victory/defeat/escape
// detection. All randomness flows through a Roller so encounters can be
// replayed deterministically.
package combat

import (
	"fmt"

	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
)

// Phase is the current state of the encounter state machine.
type Phase string

const (
	PhaseInitiative Phase = "INITIATIVE"
	PhasePlayerTurn Phase = "PLAYER_TURN"
	PhaseEnemyTurn  Phase = "ENEMY_TURN"
	PhaseResolution Phase = "RESOLUTION"
)

// Action is a player-selected combat action.
type Action string

const (
	ActionAttack Action = "attack"
	ActionDefend Action = "defend"
	ActionFlee   Action = "flee"
)

// Outcome is the terminal result of an encounter.
type Outcome string

const (
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
	OutcomeEscaped Outcome = "escaped"
)

// fleeDC is the total a 1d20+dex flee roll must meet to escape.
const fleeDC = 12

// ErrInvalidAction is returned when an action is submitted in a phase
// that does not accept it. State is never mutated on this path.
type ErrInvalidAction struct {
	Phase  Phase
	Action Action
}

func (e *ErrInvalidAction) Error() string {
	return fmt.Sprintf("action %q is not valid in combat phase %s", e.Action, e.Phase)
}

// Roller is the randomness source consumed by the engine.
// *dice.Roller satisfies it; tests substitute a scripted implementation.
type Roller interface {
	Roll(expression string) (*dice.Result, error)
	D20() int
	RollWithAdvantage() dice.AdvantageResult
	RollWithDisadvantage() dice.AdvantageResult
}

var _ Roller = (*dice.Roller)(nil)

// Combatant is one side of an encounter. The engine owns HP while the
// encounter is active; callers sync it back to the character sheet.
type Combatant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HP          int    `json:"hp"`
	MaxHP       int    `json:"max_hp"`
	AC          int    `json:"ac"`
	AttackBonus int    `json:"attack_bonus"`
	DamageExpr  string `json:"damage"`
	DexModifier int    `json:"dex_modifier"`
}

// TakeDamage reduces HP by n, flooring at 0.
func (c *Combatant) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	c.HP -= n
	if c.HP < 0 {
		c.HP = 0
	}
}

// LogEntry is one structured record in the append-only combat log.
// Entries carry full roll detail so a narrative summary can be built
// without re-rolling anything.
type LogEntry struct {
	Round    int    `json:"round"`
	ActorID  string `json:"actor_id"`
	Action   string `json:"action"`
	Rolls    []int  `json:"rolls,omitempty"`
	Modifier int    `json:"modifier,omitempty"`
	Total    int    `json:"total,omitempty"`
	TargetAC int    `json:"target_ac,omitempty"`
	Hit      bool   `json:"hit,omitempty"`
	Damage   int    `json:"damage,omitempty"`
	Note     string `json:"note,omitempty"`
}

// State is the full serializable state of one encounter.
type State struct {
	Active          bool       `json:"active"`
	Phase           Phase      `json:"phase"`
	Round           int        `json:"round"`
	TurnOrder       []string   `json:"turn_order"`
	TurnIndex       int        `json:"turn_index"`
	Player          Combatant  `json:"player"`
	Enemy           Combatant  `json:"enemy"`
	PlayerDefending bool       `json:"player_defending"`
	Outcome         Outcome    `json:"outcome,omitempty"`
	Log             []LogEntry `json:"log"`
}

// InitiativeResult reports one combatant's initiative roll.
type InitiativeResult struct {
	CombatantID string `json:"combatant_id"`
	Roll        int    `json:"roll"`
	Modifier    int    `json:"modifier"`
	Total       int    `json:"total"`
}

// ActionResult is returned from ExecuteAction. Entries holds only the log
// entries appended by this action, in order, for narration.
type ActionResult struct {
	State   *State     `json:"state"`
	Ended   bool       `json:"ended"`
	Outcome Outcome    `json:"outcome,omitempty"`
	Entries []LogEntry `json:"entries"`
}

// Engine resolves encounters. It is stateless between calls; all
// encounter state lives in State.
type Engine struct {
	roller Roller
}

// NewEngine creates an Engine. A nil roller gets a non-deterministic one.
func NewEngine(roller Roller) *Engine {
	if roller == nil {
		roller = dice.NewRoller()
	}
	return &Engine{roller: roller}
}

// Start spawns an enemy from the named template, rolls initiative for
// both sides, and returns the encounter in PLAYER_TURN. If the enemy
// wins initiative it takes its opening turn before control returns.
func (e *Engine) Start(sheet *actor.CharacterSheet, enemyTypeID string) (*State, []InitiativeResult, error) {
	if sheet == nil {
		return nil, nil, fmt.Errorf("character sheet is required to start combat")
	}

	template, err := actor.GetEnemyTemplate(enemyTypeID)
	if err != nil {
		return nil, nil, err
	}

	st := &State{
		Active: true,
		Phase:  PhaseInitiative,
		Round:  1,
		Player: Combatant{
			ID:          "player",
			Name:        sheet.Name,
			HP:          sheet.HP,
			MaxHP:       sheet.MaxHP,
			AC:          sheet.AC,
			AttackBonus: sheet.AttackBonus(),
			DamageExpr:  weaponExpr(sheet.DamageModifier()),
			DexModifier: sheet.DexModifier(),
		},
		Enemy: Combatant{
			ID:          template.TypeID,
			Name:        template.Name,
			HP:          template.MaxHP,
			MaxHP:       template.MaxHP,
			AC:          template.AC,
			AttackBonus: template.AttackBonus,
			DamageExpr:  template.DamageExpr,
			DexModifier: template.DexModifier,
		},
	}

	results := []InitiativeResult{
		e.rollInitiative(st, &st.Player),
		e.rollInitiative(st, &st.Enemy),
	}

	// Descending by total; the player wins ties.
	if results[1].Total > results[0].Total {
		st.TurnOrder = []string{st.Enemy.ID, st.Player.ID}
	} else {
		st.TurnOrder = []string{st.Player.ID, st.Enemy.ID}
	}
	st.TurnIndex = 0

	if st.TurnOrder[0] == st.Enemy.ID {
		st.Phase = PhaseEnemyTurn
		e.enemyTurn(st)
		if st.Active {
			st.Phase = PhasePlayerTurn
		}
	} else {
		st.Phase = PhasePlayerTurn
	}

	return st, results, nil
}

// ExecuteAction resolves one player action and, if the encounter is
// still live, the enemy's answering turn. The returned state is the
// same pointer, mutated in place.
func (e *Engine) ExecuteAction(st *State, action Action) (*ActionResult, error) {
	if st == nil {
		return nil, fmt.Errorf("combat state is nil")
	}
	if !st.Active || st.Phase != PhasePlayerTurn {
		return nil, &ErrInvalidAction{Phase: st.Phase, Action: action}
	}

	logStart := len(st.Log)

	switch action {
	case ActionAttack:
		e.attack(st, &st.Player, &st.Enemy, attackNormal)
		if st.Enemy.HP == 0 {
			e.resolve(st, OutcomeVictory)
			break
		}
		e.advanceTurn(st)
		e.enemyTurn(st)

	case ActionDefend:
		st.PlayerDefending = true
		st.Log = append(st.Log, LogEntry{
			Round:   st.Round,
			ActorID: st.Player.ID,
			Action:  "defend",
			Note:    "braced for the next attack",
		})
		e.advanceTurn(st)
		e.enemyTurn(st)

	case ActionFlee:
		roll := e.roller.D20()
		total := roll + st.Player.DexModifier
		entry := LogEntry{
			Round:    st.Round,
			ActorID:  st.Player.ID,
			Action:   "flee",
			Rolls:    []int{roll},
			Modifier: st.Player.DexModifier,
			Total:    total,
		}
		if total >= fleeDC {
			entry.Note = "escaped"
			st.Log = append(st.Log, entry)
			e.resolve(st, OutcomeEscaped)
			break
		}
		entry.Note = "failed to escape"
		st.Log = append(st.Log, entry)

		// A failed escape exposes the player: one free attack with
		// advantage, then the enemy's normal turn.
		e.attack(st, &st.Enemy, &st.Player, attackAdvantage)
		if st.Player.HP == 0 {
			e.resolve(st, OutcomeDefeat)
			break
		}
		e.advanceTurn(st)
		e.enemyTurn(st)

	default:
		return nil, &ErrInvalidAction{Phase: st.Phase, Action: action}
	}

	result := &ActionResult{
		State:   st,
		Ended:   !st.Active,
		Outcome: st.Outcome,
		Entries: append([]LogEntry(nil), st.Log[logStart:]...),
	}
	return result, nil
}

type attackMode int

const (
	attackNormal attackMode = iota
	attackAdvantage
	attackDisadvantage
)

// attack resolves a single attack roll and applies damage on a hit.
func (e *Engine) attack(st *State, attacker, defender *Combatant, mode attackMode) {
	entry := LogEntry{
		Round:    st.Round,
		ActorID:  attacker.ID,
		Action:   "attack",
		Modifier: attacker.AttackBonus,
		TargetAC: defender.AC,
	}

	var kept int
	switch mode {
	case attackAdvantage:
		adv := e.roller.RollWithAdvantage()
		entry.Action = "attack_advantage"
		entry.Rolls = adv.Rolls[:]
		kept = adv.Kept
	case attackDisadvantage:
		adv := e.roller.RollWithDisadvantage()
		entry.Action = "attack_disadvantage"
		entry.Rolls = adv.Rolls[:]
		kept = adv.Kept
	default:
		kept = e.roller.D20()
		entry.Rolls = []int{kept}
	}

	entry.Total = kept + attacker.AttackBonus
	entry.Hit = entry.Total >= defender.AC

	if entry.Hit {
		damage, err := e.roller.Roll(attacker.DamageExpr)
		if err != nil {
			// Damage expressions come from validated static data, so
			// this indicates a bug. Log a zero-damage hit rather than
			// corrupting the encounter.
			entry.Note = fmt.Sprintf("damage roll failed: %v", err)
		} else {
			entry.Damage = damage.Total
			defender.TakeDamage(damage.Total)
		}
	}

	st.Log = append(st.Log, entry)
}

// enemyTurn resolves the enemy's attack. A defending player imposes
// disadvantage; the flag clears once the attack resolves.
func (e *Engine) enemyTurn(st *State) {
	if !st.Active {
		return
	}
	st.Phase = PhaseEnemyTurn

	mode := attackNormal
	if st.PlayerDefending {
		mode = attackDisadvantage
	}
	e.attack(st, &st.Enemy, &st.Player, mode)
	st.PlayerDefending = false

	if st.Player.HP == 0 {
		e.resolve(st, OutcomeDefeat)
		return
	}

	e.advanceTurn(st)
	st.Phase = PhasePlayerTurn
}

// advanceTurn moves to the next combatant, incrementing the round when
// the order wraps back to the first entry.
func (e *Engine) advanceTurn(st *State) {
	st.TurnIndex++
	if st.TurnIndex >= len(st.TurnOrder) {
		st.TurnIndex = 0
		st.Round++
	}
}

// resolve terminates the encounter. RESOLUTION is terminal; the caller
// triggers exactly one narrative summary after it, never mid-combat.
func (e *Engine) resolve(st *State, outcome Outcome) {
	st.Phase = PhaseResolution
	st.Active = false
	st.Outcome = outcome
	st.Log = append(st.Log, LogEntry{
		Round:   st.Round,
		ActorID: "system",
		Action:  "resolution",
		Note:    string(outcome),
	})
}

func (e *Engine) rollInitiative(st *State, c *Combatant) InitiativeResult {
	roll := e.roller.D20()
	result := InitiativeResult{
		CombatantID: c.ID,
		Roll:        roll,
		Modifier:    c.DexModifier,
		Total:       roll + c.DexModifier,
	}
	st.Log = append(st.Log, LogEntry{
		Round:    st.Round,
		ActorID:  c.ID,
		Action:   "initiative",
		Rolls:    []int{roll},
		Modifier: c.DexModifier,
		Total:    result.Total,
	})
	return result
}

// weaponExpr builds the player's damage expression from their modifier.
func weaponExpr(modifier int) string {
	if modifier == 0 {
		return "1d6"
	}
	return fmt.Sprintf("1d6%+d", modifier)
}

// ParseAction maps free text to a combat action.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionAttack, ActionDefend, ActionFlee:
		return Action(s), true
	}
	return "", false
}
