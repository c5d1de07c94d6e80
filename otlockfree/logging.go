// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otlockfree

import (
	"time"

	lockfree "github.com/petenewcomb/lockfree-go"
	"go.uber.org/zap"
)

const component = "otlockfree"

// LogViolations runs fn and logs any protocol violation it panics with before
// letting the panic continue. Other panics pass through unlogged.
//
// The lockfree structures never log on their own; wrap the calls whose
// failures should be visible in logs.
func LogViolations(operationName string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if lockfree.IsProtocolViolation(r) {
				zap.L().Error("Protocol violation",
					zap.String("operation", operationName),
					zap.String("component", component),
					zap.Error(r.(error)))
			}
			panic(r)
		}
	}()
	fn()
}

// LoggedSharedMutex adds structured logging to a shared mutex. Acquisitions
// that wait at least the slow threshold are logged at debug level, and
// protocol violations are logged at error level before they propagate. A zero
// threshold logs every acquisition.
type LoggedSharedMutex struct {
	mutex         lockfree.RWLocker
	name          string
	slowThreshold time.Duration
}

var _ lockfree.RWLocker = (*LoggedSharedMutex)(nil)

func NewLoggedSharedMutex(name string, m lockfree.RWLocker, slowThreshold time.Duration) *LoggedSharedMutex {
	return &LoggedSharedMutex{
		mutex:         m,
		name:          name,
		slowThreshold: slowThreshold,
	}
}

func (m *LoggedSharedMutex) Lock() {
	m.acquire("exclusive", m.mutex.Lock)
}

func (m *LoggedSharedMutex) Unlock() {
	LogViolations(m.name+".unlock", m.mutex.Unlock)
}

func (m *LoggedSharedMutex) LockShared() {
	m.acquire("shared", m.mutex.LockShared)
}

func (m *LoggedSharedMutex) UnlockShared() {
	LogViolations(m.name+".unlock_shared", m.mutex.UnlockShared)
}

func (m *LoggedSharedMutex) acquire(mode string, lock func()) {
	startTime := time.Now()
	LogViolations(m.name+".lock_"+mode, lock)
	waited := time.Since(startTime)

	if waited >= m.slowThreshold {
		zap.L().Debug("Slow acquisition",
			zap.String("operation", m.name),
			zap.String("component", component),
			zap.String("mode", mode),
			zap.Duration("waited", waited))
	}
}
