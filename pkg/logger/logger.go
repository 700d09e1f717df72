package logger

type Logger interface {
	Log(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	WithPrefix(prefix string) Logger
}
