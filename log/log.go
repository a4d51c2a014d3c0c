package log

type Level int8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

// Field is a structured entry attached to every record produced by a logger instance
type Field struct {
	Name string
	Val  interface{}
}

// Logger is a minimal leveled logger used across the module
type Logger interface {
	Log(level Level, v ...interface{})
	Logf(level Level, template string, args ...interface{})
	SetLevel(level Level)
	// WithFields returns a new logger instance which includes fields into every entry
	WithFields(fields []Field) Logger
}
