package log

// Logger is the logging interface used throughout the gateway.
// It keeps the rest of the code decoupled from the logging library.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}
