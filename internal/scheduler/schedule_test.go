package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedRate_Next(t *testing.T) {
	start := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	s := newFixedRate(start, time.Hour)

	// first call returns start even when asked slightly later
	assert.Equal(t, start, s.Next(start.Add(time.Millisecond)))

	assert.Equal(t, start.Add(time.Hour), s.Next(start))
	assert.Equal(t, start.Add(time.Hour), s.Next(start.Add(59*time.Minute)))
	assert.Equal(t, start.Add(2*time.Hour), s.Next(start.Add(time.Hour)))

	// an overrunning run does not shift the grid
	assert.Equal(t, start.Add(4*time.Hour), s.Next(start.Add(3*time.Hour+25*time.Minute)))
}

func TestFixedRate_FutureStart(t *testing.T) {
	start := time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)
	s := newFixedRate(start, 24*time.Hour)

	assert.Equal(t, start, s.Next(start.Add(-6*time.Hour)))
	assert.Equal(t, start, s.Next(start.Add(-time.Hour)))
}
