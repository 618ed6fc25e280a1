package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowRejectsEleventhRequest(t *testing.T) {
	l := New(time.Minute, 10)

	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("k"), "request %d should be allowed", i+1)
	}
	assert.False(t, l.Allow("k"), "11th request within the window must be rejected")

	// Rejection records nothing, so a separate key is unaffected.
	assert.True(t, l.Allow("other"))
}

func TestAllowRecoversAfterWindow(t *testing.T) {
	base := time.Now()
	l := New(time.Minute, 10)
	l.now = func() time.Time { return base }

	for i := 0; i < 10; i++ {
		l.Allow("k")
	}
	assert.False(t, l.Allow("k"))

	// Advance past the window; old timestamps are pruned lazily.
	l.now = func() time.Time { return base.Add(61 * time.Second) }
	assert.True(t, l.Allow("k"))
}

func TestRejectionHasNoSideEffect(t *testing.T) {
	base := time.Now()
	l := New(time.Minute, 2)
	l.now = func() time.Time { return base }

	l.Allow("k")
	l.Allow("k")

	// Repeated rejections must not extend the window.
	for i := 0; i < 5; i++ {
		assert.False(t, l.Allow("k"))
	}

	l.now = func() time.Time { return base.Add(61 * time.Second) }
	assert.True(t, l.Allow("k"))
}

func TestReset(t *testing.T) {
	l := New(time.Minute, 1)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))

	l.Reset("k")
	assert.True(t, l.Allow("k"))
}
