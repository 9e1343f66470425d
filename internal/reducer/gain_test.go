package reducer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGainPct(t *testing.T) {
	tests := []struct {
		name  string
		open  float64
		close float64
		want  string
	}{
		{"gain", 100, 150, "50"},
		{"loss", 200, 180, "-10"},
		{"flat", 42, 42, "0"},
		{"rounds to two places", 3, 4, "33.33"},
		{"half rounds away from zero", 100, 100.125, "0.13"},
		{"negative half rounds away from zero", 100, 99.875, "-0.13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GainPct(tt.open, tt.close)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestGainPctRejectsInvalidPrices(t *testing.T) {
	_, err := GainPct(0, 10)
	assert.True(t, errors.Is(err, errZeroOpen))

	_, err = GainPct(math.NaN(), 10)
	assert.True(t, errors.Is(err, errNonFinite))

	_, err = GainPct(10, math.Inf(1))
	assert.True(t, errors.Is(err, errNonFinite))
}
