package services

import (
	"sync"
	"time"

	"rov_inventory_go/logger"

	"go.uber.org/zap"
)

const (
	failedSignInWindow    = 10 * time.Minute
	failedSignInThreshold = 5
	alertCooldown         = time.Hour
	maxAlerts             = 100
)

// SignInMonitor counts failed sign-ins per client IP and raises an alert
// when an address crosses the threshold inside the window.
type SignInMonitor struct {
	mu         sync.Mutex
	failures   map[string][]time.Time
	alertedIPs map[string]time.Time
	alerts     []SecurityAlert
	now        func() time.Time
}

// SecurityAlert is a raised alert, kept for the admin dashboard.
type SecurityAlert struct {
	Timestamp time.Time
	IP        string
	Email     string
	Reason    string
}

// Monitor is the process-wide sign-in monitor.
var Monitor = NewSignInMonitor()

func NewSignInMonitor() *SignInMonitor {
	return &SignInMonitor{
		failures:   make(map[string][]time.Time),
		alertedIPs: make(map[string]time.Time),
		now:        time.Now,
	}
}

// TrackFailedSignIn records a rejected sign-in. It returns true when the
// attempt raised a new alert.
func (m *SignInMonitor) TrackFailedSignIn(ip, email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	windowStart := now.Add(-failedSignInWindow)
	recent := m.failures[ip][:0]
	for _, t := range m.failures[ip] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	m.failures[ip] = recent

	if len(recent) < failedSignInThreshold {
		return false
	}
	if last, ok := m.alertedIPs[ip]; ok && now.Sub(last) < alertCooldown {
		return false
	}
	m.alertedIPs[ip] = now

	alert := SecurityAlert{Timestamp: now, IP: ip, Email: email, Reason: "repeated failed sign-ins"}
	m.alerts = append([]SecurityAlert{alert}, m.alerts...)
	if len(m.alerts) > maxAlerts {
		m.alerts = m.alerts[:maxAlerts]
	}
	logger.Security("SIGN_IN_ALERT",
		zap.String("ip", ip),
		zap.String("email", email),
		zap.Int("attempts", len(recent)))
	return true
}

// ResetIP forgets failures of an address after a successful sign-in.
func (m *SignInMonitor) ResetIP(ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, ip)
}

// RecentAlerts returns a copy of the alert history, newest first.
func (m *SignInMonitor) RecentAlerts() []SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SecurityAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Prune drops stale counters. Run periodically by the scheduler.
func (m *SignInMonitor) Prune() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for ip, attempts := range m.failures {
		if len(attempts) == 0 || now.Sub(attempts[len(attempts)-1]) > failedSignInWindow {
			delete(m.failures, ip)
		}
	}
	for ip, last := range m.alertedIPs {
		if now.Sub(last) > alertCooldown {
			delete(m.alertedIPs, ip)
		}
	}
}
