// File: facade/logger.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the facade's logger instance. It uses a no-op logger
// by default. Only install and teardown log through it; the fault path
// never does.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the facade's logger. This must be called before
// Install.
func SetLogger(l *zap.Logger) {
	logger = l
}
