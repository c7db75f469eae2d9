package actor

import (
	"fmt"
	"sort"

	"github.com/jwebster45206/adventure-engine/pkg/dice"
)

// EnemyTemplate is the static stat block an encounter is spawned from.
// Templates are immutable, globally shared lookup data.
type EnemyTemplate struct {
	TypeID      string `json:"type_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	MaxHP       int    `json:"max_hp"`
	AC          int    `json:"ac"`
	AttackBonus int    `json:"attack_bonus"`
	DamageExpr  string `json:"damage"`
	DexModifier int    `json:"dex_modifier"`
}

// Enemy is a live combatant spawned from a template.
type Enemy struct {
	Template *EnemyTemplate `json:"template"`
	HP       int            `json:"hp"`
}

// Spawn creates a fresh Enemy at full HP.
func (t *EnemyTemplate) Spawn() *Enemy {
	return &Enemy{Template: t, HP: t.MaxHP}
}

// TakeDamage reduces HP by n. HP cannot go below 0.
func (e *Enemy) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	e.HP -= n
	if e.HP < 0 {
		e.HP = 0
	}
}

// IsDefeated returns true if the enemy's HP is 0.
func (e *Enemy) IsDefeated() bool {
	return e.HP <= 0
}

// enemyTemplates covers the five required archetypes. Damage expressions
// are validated by TestEnemyTemplates_DamageExpressions so the combat
// engine never sees a malformed roll.
var enemyTemplates = map[string]*EnemyTemplate{
	"giant_rat": {
		TypeID:      "giant_rat",
		Name:        "Giant Rat",
		Description: "A mangy, dog-sized rat. Fast, fragile, and vicious.",
		MaxHP:       7,
		AC:          12,
		AttackBonus: 4,
		DamageExpr:  "1d4+2",
		DexModifier: 2,
	},
	"bandit": {
		TypeID:      "bandit",
		Name:        "Bandit",
		Description: "A road-worn cutthroat with a scimitar and nothing to lose.",
		MaxHP:       11,
		AC:          12,
		AttackBonus: 3,
		DamageExpr:  "1d6+1",
		DexModifier: 1,
	},
	"skeleton": {
		TypeID:      "skeleton",
		Name:        "Skeleton",
		Description: "Animated bones that keep fighting long past the point of sense.",
		MaxHP:       13,
		AC:          13,
		AttackBonus: 4,
		DamageExpr:  "1d6+2",
		DexModifier: 2,
	},
	"wolf": {
		TypeID:      "wolf",
		Name:        "Wolf",
		Description: "A grey-pelted pack hunter that strikes low and fast.",
		MaxHP:       11,
		AC:          13,
		AttackBonus: 4,
		DamageExpr:  "2d4+2",
		DexModifier: 2,
	},
	"ogre": {
		TypeID:      "ogre",
		Name:        "Ogre",
		Description: "Nine feet of muscle and appetite swinging a greatclub.",
		MaxHP:       20,
		AC:          11,
		AttackBonus: 6,
		DamageExpr:  "2d8+4",
		DexModifier: -1,
	},
}

// GetEnemyTemplate looks up a template by type id.
func GetEnemyTemplate(typeID string) (*EnemyTemplate, error) {
	template, ok := enemyTemplates[typeID]
	if !ok {
		return nil, fmt.Errorf("unknown enemy type: %s", typeID)
	}
	return template, nil
}

// ListEnemyTypes returns all known enemy type ids, sorted.
func ListEnemyTypes() []string {
	ids := make([]string, 0, len(enemyTemplates))
	for id := range enemyTemplates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ValidateEnemyTemplates checks every template's damage expression.
// Called once at startup; a failure here is a bug in static data.
func ValidateEnemyTemplates() error {
	for id, template := range enemyTemplates {
		if err := dice.Validate(template.DamageExpr); err != nil {
			return fmt.Errorf("enemy template %s: %w", id, err)
		}
	}
	return nil
}
