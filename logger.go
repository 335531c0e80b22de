package nvcache

// Fields carries structured context for one log line. The cache always sets
// "table", sets "name" when one setting is involved and puts errors under
// "err".
type Fields map[string]any

// Logger is a tiny leveled logger. Provide an adapter around your logging
// stack (see log/zap, log/logrus, log/slog).
// If Logger is nil in Options, logging is disabled.
//
// Remote failures and reads that bypass the cache log at Warn; version moves,
// store binding and unsupported fast paths log at Debug.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
