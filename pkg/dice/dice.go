// Package dice evaluates standard dice notation ("2d6+3") with a
// swappable randomness source so combat outcomes can be replayed
// deterministically in tests.
package dice

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
)

// ErrInvalidExpression is returned when a dice expression cannot be parsed
// or violates the notation constraints (count >= 1, sides >= 2).
type ErrInvalidExpression struct {
	Expression string
	Reason     string
}

func (e *ErrInvalidExpression) Error() string {
	return fmt.Sprintf("invalid dice expression %q: %s", e.Expression, e.Reason)
}

// expressionPattern matches <count>d<sides> with an optional +N or -N modifier.
var expressionPattern = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// Result holds the outcome of evaluating one dice expression.
type Result struct {
	Expression string `json:"expression"`
	Rolls      []int  `json:"rolls"`
	Modifier   int    `json:"modifier"`
	Total      int    `json:"total"`
}

// AdvantageResult holds both raw d20 rolls from an advantage or
// disadvantage roll, plus the one that was kept.
type AdvantageResult struct {
	Rolls [2]int `json:"rolls"`
	Kept  int    `json:"kept"`
}

// Roller evaluates dice expressions against a rand.Rand.
// The zero value is not usable; construct with NewRoller or NewSeededRoller.
type Roller struct {
	rng *rand.Rand
}

// NewRoller creates a Roller with a non-deterministic seed.
func NewRoller() *Roller {
	return &Roller{rng: rand.New(rand.NewSource(rand.Int63()))}
}

// NewSeededRoller creates a Roller with a fixed seed. Given the same seed
// and the same sequence of calls, results are identical.
func NewSeededRoller(seed int64) *Roller {
	return &Roller{rng: rand.New(rand.NewSource(seed))}
}

// Roll evaluates an expression of the form <count>d<sides>[+|-<modifier>].
func (r *Roller) Roll(expression string) (*Result, error) {
	m := expressionPattern.FindStringSubmatch(expression)
	if m == nil {
		return nil, &ErrInvalidExpression{Expression: expression, Reason: "expected <count>d<sides>[+|-<modifier>]"}
	}

	count, err := strconv.Atoi(m[1])
	if err != nil || count < 1 {
		return nil, &ErrInvalidExpression{Expression: expression, Reason: "die count must be at least 1"}
	}

	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 2 {
		return nil, &ErrInvalidExpression{Expression: expression, Reason: "die must have at least 2 sides"}
	}

	modifier := 0
	if m[3] != "" {
		// Sign is part of the capture group, so Atoi handles it.
		modifier, err = strconv.Atoi(m[3])
		if err != nil {
			return nil, &ErrInvalidExpression{Expression: expression, Reason: "modifier is not numeric"}
		}
	}

	result := &Result{
		Expression: expression,
		Rolls:      make([]int, count),
		Modifier:   modifier,
		Total:      modifier,
	}
	for i := 0; i < count; i++ {
		roll := r.rng.Intn(sides) + 1
		result.Rolls[i] = roll
		result.Total += roll
	}

	return result, nil
}

// D20 rolls a single d20 and returns its face value.
func (r *Roller) D20() int {
	return r.rng.Intn(20) + 1
}

// RollWithAdvantage rolls two d20 and keeps the higher.
func (r *Roller) RollWithAdvantage() AdvantageResult {
	a, b := r.D20(), r.D20()
	res := AdvantageResult{Rolls: [2]int{a, b}, Kept: a}
	if b > a {
		res.Kept = b
	}
	return res
}

// RollWithDisadvantage rolls two d20 and keeps the lower.
func (r *Roller) RollWithDisadvantage() AdvantageResult {
	a, b := r.D20(), r.D20()
	res := AdvantageResult{Rolls: [2]int{a, b}, Kept: a}
	if b < a {
		res.Kept = b
	}
	return res
}

// Validate checks an expression without rolling it. Static template data
// is validated at load time so the engine never rolls a malformed string.
func Validate(expression string) error {
	m := expressionPattern.FindStringSubmatch(expression)
	if m == nil {
		return &ErrInvalidExpression{Expression: expression, Reason: "expected <count>d<sides>[+|-<modifier>]"}
	}
	if count, err := strconv.Atoi(m[1]); err != nil || count < 1 {
		return &ErrInvalidExpression{Expression: expression, Reason: "die count must be at least 1"}
	}
	if sides, err := strconv.Atoi(m[2]); err != nil || sides < 2 {
		return &ErrInvalidExpression{Expression: expression, Reason: "die must have at least 2 sides"}
	}
	return nil
}
