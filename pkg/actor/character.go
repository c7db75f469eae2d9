// Package actor holds the combatant types of the adventure engine: the
// player's character sheet and the enemy templates encounters are spawned
// from.
package actor

import "fmt"

// Stats represents the six core ability scores. Valid scores are 3-18.
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

const (
	MinAbilityScore = 3
	MaxAbilityScore = 18
)

// Validate checks that every score is within the legal range.
func (s *Stats) Validate() error {
	scores := map[string]int{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
	for name, score := range scores {
		if score < MinAbilityScore || score > MaxAbilityScore {
			return fmt.Errorf("ability score %s=%d out of range [%d, %d]", name, score, MinAbilityScore, MaxAbilityScore)
		}
	}
	return nil
}

// Modifier derives the ability modifier for a score: floor((score-10)/2).
func Modifier(score int) int {
	diff := score - 10
	if diff < 0 {
		// Round toward negative infinity, not zero.
		return (diff - 1) / 2
	}
	return diff / 2
}

// proficiencyBonus is flat; the engine does not model levels beyond 1-4.
const proficiencyBonus = 2

// CharacterSheet is the player's in-fiction persona. It is created once
// during onboarding and owned by the session afterward.
type CharacterSheet struct {
	Name      string   `json:"name"`
	Race      string   `json:"race,omitempty"`
	Class     string   `json:"class,omitempty"`
	Stats     Stats    `json:"stats"`
	HP        int      `json:"hp"`
	MaxHP     int      `json:"max_hp"`
	AC        int      `json:"ac"`
	Equipment []string `json:"equipment,omitempty"`
}

// NewCharacterSheet builds a sheet with HP at max.
func NewCharacterSheet(name, race, class string, stats Stats, maxHP, ac int) (*CharacterSheet, error) {
	if name == "" {
		return nil, fmt.Errorf("character name cannot be empty")
	}
	if err := stats.Validate(); err != nil {
		return nil, err
	}
	if maxHP < 1 {
		return nil, fmt.Errorf("max HP must be positive, got %d", maxHP)
	}
	return &CharacterSheet{
		Name:  name,
		Race:  race,
		Class: class,
		Stats: stats,
		HP:    maxHP,
		MaxHP: maxHP,
		AC:    ac,
	}, nil
}

// DexModifier is the initiative and flee modifier.
func (c *CharacterSheet) DexModifier() int {
	return Modifier(c.Stats.Dexterity)
}

// AttackBonus derives the to-hit bonus from the better of strength and
// dexterity, plus proficiency.
func (c *CharacterSheet) AttackBonus() int {
	strMod := Modifier(c.Stats.Strength)
	dexMod := Modifier(c.Stats.Dexterity)
	if dexMod > strMod {
		return dexMod + proficiencyBonus
	}
	return strMod + proficiencyBonus
}

// DamageModifier is added to weapon damage rolls.
func (c *CharacterSheet) DamageModifier() int {
	strMod := Modifier(c.Stats.Strength)
	dexMod := Modifier(c.Stats.Dexterity)
	if dexMod > strMod {
		return dexMod
	}
	return strMod
}

// TakeDamage reduces HP by n. HP cannot go below 0.
func (c *CharacterSheet) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	c.HP -= n
	if c.HP < 0 {
		c.HP = 0
	}
}

// Heal increases HP by n. HP cannot exceed MaxHP.
func (c *CharacterSheet) Heal(n int) {
	if n <= 0 {
		return
	}
	c.HP += n
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
}

// IsDown returns true when the character has been reduced to 0 HP.
func (c *CharacterSheet) IsDown() bool {
	return c.HP <= 0
}

// AddEquipment appends an item, skipping duplicates.
func (c *CharacterSheet) AddEquipment(item string) {
	for _, existing := range c.Equipment {
		if existing == item {
			return
		}
	}
	c.Equipment = append(c.Equipment, item)
}
