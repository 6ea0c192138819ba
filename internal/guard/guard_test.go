package guard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func TestSubmissionWindow(t *testing.T) {
	tests := []struct {
		name string
		gap  time.Duration
		want int
	}{
		{"100ms apart", 100 * time.Millisecond, 1},
		{"499ms apart", 499 * time.Millisecond, 1},
		{"500ms apart", 500 * time.Millisecond, 2},
		{"600ms apart", 600 * time.Millisecond, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			g := NewSubmission(0, clock.Now)
			created := 0
			submit := func() error { created++; return nil }

			_, err := g.Do(submit)
			require.NoError(t, err)
			clock.Advance(tt.gap)
			_, err = g.Do(submit)
			require.NoError(t, err)

			assert.Equal(t, tt.want, created)
		})
	}
}

func TestSubmissionInFlight(t *testing.T) {
	clock := newClock()
	g := NewSubmission(0, clock.Now)

	require.True(t, g.Begin())
	assert.Equal(t, Submitting, g.State())
	assert.False(t, g.Enabled())

	clock.Advance(time.Second)
	assert.False(t, g.Begin(), "still in flight")

	g.End()
	assert.True(t, g.Enabled())
	assert.True(t, g.Begin())
}

func TestSubmissionReturnsToIdleOnFailure(t *testing.T) {
	clock := newClock()
	g := NewSubmission(0, clock.Now)

	ran, err := g.Do(func() error { return errors.New("title is required") })
	assert.True(t, ran)
	assert.EqualError(t, err, "title is required")
	assert.Equal(t, Idle, g.State())

	clock.Advance(time.Second)
	assert.Panics(t, func() {
		_, _ = g.Do(func() error { panic("boom") })
	})
	assert.Equal(t, Idle, g.State())
}

func TestTouchFilter(t *testing.T) {
	clock := newClock()
	f := NewTouchFilter(0, clock.Now)

	assert.True(t, f.AllowClick())

	f.Touch()
	clock.Advance(200 * time.Millisecond)
	assert.False(t, f.AllowClick())

	clock.Advance(300 * time.Millisecond)
	assert.True(t, f.AllowClick())
}
