package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestMonitor(start time.Time) (*SignInMonitor, *time.Time) {
	m := NewSignInMonitor()
	clock := start
	m.now = func() time.Time { return clock }
	return m, &clock
}

func TestSignInMonitor(t *testing.T) {
	ip := "10.0.0.7"

	t.Run("alert after threshold", func(t *testing.T) {
		m, _ := newTestMonitor(time.Now())
		for i := 0; i < failedSignInThreshold-1; i++ {
			assert.False(t, m.TrackFailedSignIn(ip, "a@b.cl"))
		}
		assert.True(t, m.TrackFailedSignIn(ip, "a@b.cl"))

		alerts := m.RecentAlerts()
		if assert.Len(t, alerts, 1) {
			assert.Equal(t, ip, alerts[0].IP)
			assert.Equal(t, "a@b.cl", alerts[0].Email)
		}
	})

	t.Run("cooldown suppresses repeats", func(t *testing.T) {
		m, clock := newTestMonitor(time.Now())
		for i := 0; i < failedSignInThreshold; i++ {
			m.TrackFailedSignIn(ip, "")
		}
		assert.False(t, m.TrackFailedSignIn(ip, ""))
		assert.Len(t, m.RecentAlerts(), 1)

		*clock = clock.Add(alertCooldown + time.Minute)
		for i := 0; i < failedSignInThreshold-1; i++ {
			m.TrackFailedSignIn(ip, "")
		}
		assert.True(t, m.TrackFailedSignIn(ip, ""))
		assert.Len(t, m.RecentAlerts(), 2)
	})

	t.Run("old failures fall out of the window", func(t *testing.T) {
		m, clock := newTestMonitor(time.Now())
		for i := 0; i < failedSignInThreshold-1; i++ {
			m.TrackFailedSignIn(ip, "")
		}
		*clock = clock.Add(failedSignInWindow + time.Second)
		assert.False(t, m.TrackFailedSignIn(ip, ""))
	})

	t.Run("reset and prune", func(t *testing.T) {
		m, clock := newTestMonitor(time.Now())
		m.TrackFailedSignIn(ip, "")
		m.TrackFailedSignIn("10.0.0.8", "")
		m.ResetIP(ip)
		assert.NotContains(t, m.failures, ip)

		*clock = clock.Add(failedSignInWindow + time.Second)
		m.Prune()
		assert.Empty(t, m.failures)
	})
}
