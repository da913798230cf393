package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportNilCallback(t *testing.T) {
	assert.NotPanics(t, func() {
		Report(nil, 0.5, "nothing listens")
	})
}

func TestReportClampsFraction(t *testing.T) {
	var got []float64
	cb := func(fraction float64, message string) {
		got = append(got, fraction)
	}

	Report(cb, -0.5, "")
	Report(cb, 0.5, "")
	Report(cb, 1.5, "")

	assert.Equal(t, []float64{0, 0.5, 1}, got)
}

func TestReportSwallowsPanic(t *testing.T) {
	cb := func(fraction float64, message string) {
		panic("bad ui callback")
	}

	assert.NotPanics(t, func() {
		Report(cb, 0.5, "still fine")
	})
}

func TestScaled(t *testing.T) {
	var fractions []float64
	var messages []string
	cb := func(fraction float64, message string) {
		fractions = append(fractions, fraction)
		messages = append(messages, message)
	}

	sub := Scaled(cb, 0.2, 0.3, "phase")
	sub(0, "start")
	sub(0.5, "half")
	sub(1, "done")

	require.Len(t, fractions, 3)
	assert.InDelta(t, 0.2, fractions[0], 1e-9)
	assert.InDelta(t, 0.35, fractions[1], 1e-9)
	assert.InDelta(t, 0.5, fractions[2], 1e-9)
	assert.Contains(t, messages[1], "phase")
}

func TestScaledNilParent(t *testing.T) {
	assert.Nil(t, Scaled(nil, 0, 1, "phase"), "nil parent propagates so Report stays a no-op")
}
