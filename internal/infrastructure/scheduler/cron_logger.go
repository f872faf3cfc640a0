package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.SugaredLogger
}

var _ cron.Logger = cronLogger{}

func newCronLogger(logger *zap.Logger) cronLogger {
	return cronLogger{logger: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// Info implements cron.Logger. cron logs every tick at info, so it goes to debug.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, normalize(keysAndValues)...)
}

// Error implements cron.Logger
func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(normalize(keysAndValues), "error", err)...)
}

// normalize stringifies keys so odd key types do not trip zap's sugar
func normalize(keysAndValues []any) []any {
	out := make([]any, 0, len(keysAndValues))
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		var value any
		if i+1 < len(keysAndValues) {
			value = keysAndValues[i+1]
		}
		out = append(out, key, value)
	}
	return out
}
