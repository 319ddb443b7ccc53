package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDurationNormalizes(t *testing.T) {
	cases := []struct {
		name        string
		hours, mins int
		wantH       int
		wantM       int
	}{
		{"no carry", 2, 35, 2, 35},
		{"carry overflow", 2, 75, 3, 15},
		{"exact hour carry", 1, 60, 2, 0},
		{"minutes only", 0, 150, 2, 30},
		{"zero", 0, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := NewDuration(tc.hours, tc.mins)
			require.NoError(t, err)
			assert.Equal(t, tc.wantH, d.Hours)
			assert.Equal(t, tc.wantM, d.Minutes)
		})
	}
}

func TestNewDurationRejectsNegatives(t *testing.T) {
	_, err := NewDuration(-1, 30)
	assert.ErrorIs(t, err, ErrNegativeDuration)
	_, err = NewDuration(2, -5)
	assert.ErrorIs(t, err, ErrNegativeDuration)
}

func TestDurationStringRoundTrip(t *testing.T) {
	d, err := NewDuration(2, 75)
	require.NoError(t, err)
	assert.Equal(t, "3:15", d.String())

	back, err := ParseDuration("3:15")
	require.NoError(t, err)
	assert.Equal(t, d, back)
}

func TestParseDurationRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "315", "3:5", "3:75", "x:15", "3:xx", "-1:30"} {
		_, err := ParseDuration(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestDurationArithmetic(t *testing.T) {
	d, err := NewDuration(2, 35)
	require.NoError(t, err)
	assert.Equal(t, 155, d.TotalMinutes())
	assert.Equal(t, 155*time.Minute, d.Std())

	longer, err := NewDuration(2, 36)
	require.NoError(t, err)
	assert.True(t, d.Less(longer))
	assert.False(t, longer.Less(d))
	assert.False(t, d.Less(d))
}
