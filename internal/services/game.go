package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/store"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/combat"
	"github.com/jwebster45206/adventure-engine/pkg/director"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// combatOptions is the fixed option set shown while an encounter is live.
var combatOptions = []string{"Attack", "Defend", "Flee"}

// Significance scores for combat notable moments.
const (
	momentSignificanceEscape  = 5
	momentSignificanceVictory = 8
	momentSignificanceDefeat  = 9
)

// GameConfig holds the dependencies for the game service.
type GameConfig struct {
	Store        store.Store
	Orchestrator *director.Orchestrator
	Policy       *director.Policy
	Engine       *combat.Engine

	// Narrator is used for the single resolution summary after an
	// encounter ends. Optional; without it the mechanical summary
	// stands alone.
	Narrator director.Collaborator

	Logger *slog.Logger
}

// Validate ensures all required dependencies are provided.
func (c *GameConfig) Validate() error {
	if c.Store == nil {
		return fmt.Errorf("game service requires a store")
	}
	if c.Orchestrator == nil {
		return fmt.Errorf("game service requires an orchestrator")
	}
	if c.Policy == nil {
		return fmt.Errorf("game service requires a routing policy")
	}
	if c.Engine == nil {
		return fmt.Errorf("game service requires a combat engine")
	}
	return nil
}

// GameService drives sessions: lifecycle, turn processing, and combat.
// Turns for one session id are serialized; sessions are independent.
type GameService struct {
	store        store.Store
	orchestrator *director.Orchestrator
	policy       *director.Policy
	engine       *combat.Engine
	narrator     director.Collaborator
	logger       *slog.Logger

	mu       sync.Mutex
	locks    map[uuid.UUID]*sync.Mutex
	degraded bool
}

// NewGameService creates the game service from its dependencies.
func NewGameService(cfg GameConfig) (*GameService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GameService{
		store:        cfg.Store,
		orchestrator: cfg.Orchestrator,
		policy:       cfg.Policy,
		engine:       cfg.Engine,
		narrator:     cfg.Narrator,
		logger:       logger,
		locks:        make(map[uuid.UUID]*sync.Mutex),
	}, nil
}

// sessionLock returns the mutex serializing turns for one session id.
func (g *GameService) sessionLock(id uuid.UUID) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[id] = lock
	}
	return lock
}

// Degraded reports whether a persistence write has failed since startup.
func (g *GameService) Degraded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.degraded
}

func (g *GameService) markDegraded(id uuid.UUID, err error) {
	g.logger.Error("Session write failed, durability degraded",
		"session_id", id,
		"error", err)
	g.mu.Lock()
	g.degraded = true
	g.mu.Unlock()
}

// Ping checks the session store.
func (g *GameService) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}

// CreateSession starts a fresh session in the onboarding phase.
func (g *GameService) CreateSession(ctx context.Context) (*session.State, error) {
	state := session.New()
	state.SetOptions(director.DefaultOptions)
	if err := g.store.Create(ctx, state.ID, state); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	g.logger.Info("Session created", "session_id", state.ID)
	return state, nil
}

// GetSession loads an existing session.
func (g *GameService) GetSession(ctx context.Context, id uuid.UUID) (*session.State, error) {
	return g.store.Get(ctx, id)
}

// GetOrCreateSession loads the session for id, creating one when id is
// nil or unknown.
func (g *GameService) GetOrCreateSession(ctx context.Context, id uuid.UUID) (*session.State, error) {
	if id == uuid.Nil {
		return g.CreateSession(ctx)
	}

	state, err := g.store.Get(ctx, id)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	state = session.New()
	state.ID = id
	state.SetOptions(director.DefaultOptions)
	if err := g.store.Create(ctx, id, state); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	g.logger.Info("Session created for requested id", "session_id", id)
	return state, nil
}

// DeleteSession removes a session record, reporting whether it existed.
func (g *GameService) DeleteSession(ctx context.Context, id uuid.UUID) (bool, error) {
	return g.store.Delete(ctx, id)
}

// SetCharacter attaches a character sheet, which ends onboarding.
func (g *GameService) SetCharacter(ctx context.Context, id uuid.UUID, sheet *actor.CharacterSheet) (*session.State, error) {
	lock := g.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	state, err := g.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	state.SetCharacterSheet(sheet)
	if err := g.store.Update(ctx, id, state); err != nil {
		g.markDegraded(id, err)
	}
	return state, nil
}

// SetQuest records the active quest.
func (g *GameService) SetQuest(ctx context.Context, id uuid.UUID, quest string) (*session.State, error) {
	lock := g.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	state, err := g.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	state.ActiveQuest = quest
	state.AddNotableMoment("Quest accepted: "+quest, 6)
	if err := g.store.Update(ctx, id, state); err != nil {
		g.markDegraded(id, err)
	}
	return state, nil
}

// CompleteQuest clears the active quest and records the completion as a
// high-significance moment.
func (g *GameService) CompleteQuest(ctx context.Context, id uuid.UUID) (*session.State, error) {
	lock := g.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	state, err := g.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if state.ActiveQuest == "" {
		return nil, fmt.Errorf("session %s has no active quest", id)
	}

	state.AddNotableMoment("Quest completed: "+state.ActiveQuest, 9)
	state.ActiveQuest = ""
	if err := g.store.Update(ctx, id, state); err != nil {
		g.markDegraded(id, err)
	}
	return state, nil
}

// StartCombat spawns an encounter against the named enemy type. The
// session must have a character and must not already be in combat.
func (g *GameService) StartCombat(ctx context.Context, id uuid.UUID, enemyTypeID string) (*session.State, []combat.InitiativeResult, error) {
	lock := g.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	state, err := g.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if state.Character == nil {
		return nil, nil, fmt.Errorf("session %s has no character sheet", id)
	}
	if state.InCombat() {
		return nil, nil, fmt.Errorf("session %s already has an active encounter", id)
	}

	combatState, initiative, err := g.engine.Start(state.Character, enemyTypeID)
	if err != nil {
		return nil, nil, err
	}

	state.Character.HP = combatState.Player.HP
	state.SetCombatState(combatState)
	state.SetOptions(combatOptions)

	if err := g.store.Update(ctx, id, state); err != nil {
		g.markDegraded(id, err)
	}

	g.logger.Info("Combat started",
		"session_id", id,
		"enemy", enemyTypeID,
		"first", combatState.TurnOrder[0])
	return state, initiative, nil
}

// ProcessTurn runs one full turn for a session: routing, collaborator
// execution (or combat resolution), state mutation, and persistence.
// Turns for the same session id never overlap.
func (g *GameService) ProcessTurn(ctx context.Context, id uuid.UUID, action string) (*director.TurnResult, error) {
	if strings.TrimSpace(action) == "" {
		return nil, fmt.Errorf("action cannot be empty")
	}

	lock := g.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	state, err := g.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var result *director.TurnResult
	if state.InCombat() {
		result, err = g.combatTurn(ctx, state, action)
		if err != nil {
			return nil, err
		}
	} else {
		result = g.narrativeTurn(ctx, state, action)
	}

	state.AddExchange(action, result.Narrative)
	state.SetOptions(result.Options)

	// State mutation is complete; losing the write degrades durability
	// but must not fail the turn.
	if err := g.store.Update(ctx, id, state); err != nil {
		g.markDegraded(id, err)
	}

	return result, nil
}

// narrativeTurn routes and executes collaborators for a non-combat turn.
func (g *GameService) narrativeTurn(ctx context.Context, state *session.State, action string) *director.TurnResult {
	decision := g.policy.Route(action, state.Phase, state.RecentCollaborators)
	g.logger.Debug("Turn routed",
		"session_id", state.ID,
		"collaborators", decision.Names(),
		"reason", decision.Reason)

	result := g.orchestrator.Execute(ctx, decision, action, buildContext(state))

	// Ledger records only collaborators that actually produced output,
	// in invocation order, so cooldown reflects reality after failures.
	var used []string
	for _, name := range decision.Names() {
		if _, ok := result.Outputs[name]; ok {
			used = append(used, name)
		}
	}
	state.RecordCollaborators(used...)

	return result
}

// combatTurn resolves one combat action through the engine. Narrative
// collaborators stay out of the loop until the encounter resolves; the
// resolution triggers exactly one summary call.
func (g *GameService) combatTurn(ctx context.Context, state *session.State, action string) (*director.TurnResult, error) {
	combatAction, ok := combat.ParseAction(strings.ToLower(strings.TrimSpace(action)))
	if !ok {
		return nil, &combat.ErrInvalidAction{
			Phase:  state.Combat.Phase,
			Action: combat.Action(action),
		}
	}

	actionResult, err := g.engine.ExecuteAction(state.Combat, combatAction)
	if err != nil {
		return nil, err
	}

	state.Character.HP = state.Combat.Player.HP
	state.RecordCollaborators(director.CollaboratorMechanic)

	narrative := narrateCombat(state.Combat, actionResult.Entries)
	options := combatOptions

	if actionResult.Ended {
		narrative = g.finishCombat(ctx, state, actionResult, narrative)
		options = director.DefaultOptions
	}

	return &director.TurnResult{
		Outputs:   map[string]string{director.CollaboratorMechanic: narrative},
		Narrative: narrative,
		Options:   options,
		Decision: director.Decision{
			Collaborators: []string{director.CollaboratorMechanic},
			Reason:        "combat",
		},
	}, nil
}

// finishCombat records the outcome, clears combat state, and makes the
// one allowed narrator summary call.
func (g *GameService) finishCombat(ctx context.Context, state *session.State, result *combat.ActionResult, mechanical string) string {
	enemy := state.Combat.Enemy.Name
	switch result.Outcome {
	case combat.OutcomeVictory:
		state.AddNotableMoment("Defeated the "+enemy, momentSignificanceVictory)
	case combat.OutcomeDefeat:
		state.AddNotableMoment("Struck down by the "+enemy, momentSignificanceDefeat)
	case combat.OutcomeEscaped:
		state.AddNotableMoment("Escaped from the "+enemy, momentSignificanceEscape)
	}
	state.SetCombatState(nil)

	if g.narrator == nil {
		return mechanical
	}

	summary, err := g.narrator.Respond(ctx,
		"Summarize the end of this fight in 2-3 sentences. Outcome: "+string(result.Outcome),
		buildContext(state)+"\n\nCombat log:\n"+mechanical)
	if err != nil || strings.TrimSpace(summary) == "" {
		g.logger.Warn("Combat summary failed, keeping mechanical narrative", "error", err)
		return mechanical
	}

	state.RecordCollaborators(director.CollaboratorNarrator)
	return mechanical + "\n\n" + summary
}

// buildContext assembles the context string fed to collaborators:
// character, quest, notable moments, and recent exchanges.
func buildContext(state *session.State) string {
	var b strings.Builder

	if c := state.Character; c != nil {
		fmt.Fprintf(&b, "Character: %s, a %s %s (%d/%d HP).\n",
			c.Name, c.Race, c.Class, c.HP, c.MaxHP)
	}
	if state.ActiveQuest != "" {
		fmt.Fprintf(&b, "Active quest: %s\n", state.ActiveQuest)
	}
	if len(state.NotableMoments) > 0 {
		b.WriteString("Notable moments:\n")
		for _, m := range state.NotableMoments {
			fmt.Fprintf(&b, "- %s\n", m.Description)
		}
	}
	for _, exchange := range state.RecentHistory(5) {
		fmt.Fprintf(&b, "\nPlayer: %s\nStory: %s\n", exchange.PlayerAction, exchange.Narrative)
	}

	return strings.TrimSpace(b.String())
}

// narrateCombat renders structured log entries as plain mechanical
// prose. Everything needed is in the log; nothing is re-rolled.
func narrateCombat(st *combat.State, entries []combat.LogEntry) string {
	var lines []string
	for _, entry := range entries {
		actorName := st.Enemy.Name
		targetName := st.Player.Name
		if entry.ActorID == st.Player.ID {
			actorName = st.Player.Name
			targetName = st.Enemy.Name
		}

		switch entry.Action {
		case "attack", "attack_advantage", "attack_disadvantage":
			roll := fmt.Sprintf("%v%+d = %d vs AC %d", entry.Rolls, entry.Modifier, entry.Total, entry.TargetAC)
			if entry.Hit {
				lines = append(lines, fmt.Sprintf("%s hits %s (%s) for %d damage.",
					actorName, targetName, roll, entry.Damage))
			} else {
				lines = append(lines, fmt.Sprintf("%s misses %s (%s).", actorName, targetName, roll))
			}
		case "defend":
			lines = append(lines, fmt.Sprintf("%s takes a defensive stance.", actorName))
		case "flee":
			lines = append(lines, fmt.Sprintf("%s tries to flee (%v%+d = %d): %s.",
				actorName, entry.Rolls, entry.Modifier, entry.Total, entry.Note))
		case "resolution":
			switch combat.Outcome(entry.Note) {
			case combat.OutcomeVictory:
				lines = append(lines, fmt.Sprintf("The %s falls. Victory!", st.Enemy.Name))
			case combat.OutcomeDefeat:
				lines = append(lines, fmt.Sprintf("%s collapses, defeated.", st.Player.Name))
			case combat.OutcomeEscaped:
				lines = append(lines, fmt.Sprintf("%s slips away from the fight.", st.Player.Name))
			}
		}
	}
	return strings.Join(lines, "\n")
}
