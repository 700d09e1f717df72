package logger

import (
	"go.uber.org/zap"
)

type ZapLogger struct {
	sugar  *zap.SugaredLogger
	prefix string
}

func NewLogger(prefix string) *ZapLogger {
	z, err := zap.NewProduction()
	if err != nil {
		z = zap.NewNop()
	}
	return &ZapLogger{sugar: z.Sugar(), prefix: prefix}
}

// NewNopLogger discards everything; handy in tests.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

func (l *ZapLogger) Log(format string, v ...interface{}) {
	l.sugar.Infof(l.prefix+" "+format, v...)
}

func (l *ZapLogger) Errorf(format string, v ...interface{}) {
	l.sugar.Errorf(l.prefix+" "+format, v...)
}

func (l *ZapLogger) WithPrefix(extraPrefix string) Logger {
	return &ZapLogger{
		sugar:  l.sugar,
		prefix: l.prefix + " " + extraPrefix,
	}
}
