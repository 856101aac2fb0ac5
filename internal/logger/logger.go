package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	instance *zap.SugaredLogger
	once     sync.Once
)

// New builds the process-wide sugared logger. Any env other than
// "production" gets the human-readable development encoder. The first
// call wins; later calls return the same instance.
func New(env string) (*zap.SugaredLogger, error) {
	var err error
	once.Do(func() {
		build := zap.NewDevelopment
		if env == "production" {
			build = zap.NewProduction
		}
		var l *zap.Logger
		l, err = build()
		if err != nil {
			return
		}
		instance = l.Sugar()
	})
	return instance, err
}
