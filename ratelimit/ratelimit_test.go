package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_PerKeyBurst(t *testing.T) {
	krl := New(60, 2, 0)
	defer krl.Stop()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	krl.now = func() time.Time { return now }

	assert.True(t, krl.Allow("10.0.0.1"))
	assert.True(t, krl.Allow("10.0.0.1"))
	assert.False(t, krl.Allow("10.0.0.1"))

	// Other keys are independent.
	assert.True(t, krl.Allow("10.0.0.2"))

	// 60/minute refills one token per second.
	now = now.Add(time.Second)
	assert.True(t, krl.Allow("10.0.0.1"))
	assert.False(t, krl.Allow("10.0.0.1"))
}

func TestSweep_EvictsIdleKeys(t *testing.T) {
	krl := New(60, 1, time.Hour)
	defer krl.Stop()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	krl.now = func() time.Time { return now }

	krl.Allow("old")
	now = now.Add(50 * time.Minute)
	krl.Allow("recent")
	now = now.Add(20 * time.Minute)

	krl.sweep()
	assert.Equal(t, 1, krl.Len())
}

func TestShutdownIsIdempotent(t *testing.T) {
	krl := New(10, 1, time.Minute)
	assert.NoError(t, krl.Shutdown())
	assert.NoError(t, krl.Shutdown())
}
