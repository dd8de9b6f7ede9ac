package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"PT4M13S", 253},
		{"PT1H2S", 3602},
		{"PT45S", 45},
		{"PT0.5S", 0.5},
		{"P0D", 0},
		{"P1DT2H", 93600},
		{"P1W", 604800},
		{"PT10M", 600},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseISODuration(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseISODuration_Invalid(t *testing.T) {
	for _, in := range []string{"", "P", "PT", "4M13S", "PT4X", "P1DT", "pt1m"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseISODuration(in)
			assert.Error(t, err)
		})
	}
}
