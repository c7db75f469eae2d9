package dice

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoll_Deterministic(t *testing.T) {
	first := NewSeededRoller(42)
	second := NewSeededRoller(42)

	for i := 0; i < 10; i++ {
		a, err := first.Roll("2d6+3")
		require.NoError(t, err)
		b, err := second.Roll("2d6+3")
		require.NoError(t, err)
		assert.Equal(t, a.Rolls, b.Rolls)
		assert.Equal(t, a.Total, b.Total)
	}
}

func TestRoll_TotalAndBounds(t *testing.T) {
	roller := NewSeededRoller(7)

	tests := []struct {
		expression string
		count      int
		sides      int
		modifier   int
	}{
		{"1d20", 1, 20, 0},
		{"2d6+3", 2, 6, 3},
		{"1d20-1", 1, 20, -1},
		{"4d8+2", 4, 8, 2},
		{"1d2", 1, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				result, err := roller.Roll(tt.expression)
				require.NoError(t, err)
				require.Len(t, result.Rolls, tt.count)
				assert.Equal(t, tt.modifier, result.Modifier)

				sum := tt.modifier
				for _, roll := range result.Rolls {
					assert.GreaterOrEqual(t, roll, 1)
					assert.LessOrEqual(t, roll, tt.sides)
					sum += roll
				}
				assert.Equal(t, sum, result.Total)
			}
		})
	}
}

func TestRoll_InvalidExpressions(t *testing.T) {
	roller := NewSeededRoller(1)

	tests := []string{
		"",
		"d6",
		"2d",
		"xd6",
		"2dx",
		"2d6+",
		"2d6++3",
		"0d6",
		"1d1",
		"1d0",
		"2d6 + 3",
		"-1d6",
	}

	for _, expression := range tests {
		t.Run(expression, func(t *testing.T) {
			_, err := roller.Roll(expression)
			require.Error(t, err)

			var invalid *ErrInvalidExpression
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestRollWithAdvantage(t *testing.T) {
	roller := NewSeededRoller(99)

	for i := 0; i < 100; i++ {
		result := roller.RollWithAdvantage()
		assert.Equal(t, max(result.Rolls[0], result.Rolls[1]), result.Kept)
		for _, roll := range result.Rolls {
			assert.GreaterOrEqual(t, roll, 1)
			assert.LessOrEqual(t, roll, 20)
		}
	}
}

func TestRollWithDisadvantage(t *testing.T) {
	roller := NewSeededRoller(99)

	for i := 0; i < 100; i++ {
		result := roller.RollWithDisadvantage()
		assert.Equal(t, min(result.Rolls[0], result.Rolls[1]), result.Kept)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("1d6"))
	assert.NoError(t, Validate("3d8-2"))
	assert.Error(t, Validate("garbage"))
	assert.Error(t, Validate("0d6"))
	assert.Error(t, Validate("1d1"))
}
