package log

import (
	"fmt"
	"io"
	stdLog "log"
	"strings"
)

// DefaultLogger returns a leveled logger writing to out, used when no other implementation is provided
func DefaultLogger(out io.Writer) Logger {
	return &defaultLogger{
		internalLogger: stdLog.New(out, "[adoption] ", stdLog.Ldate|stdLog.Ltime|stdLog.Lmicroseconds),
		level:          InfoLevel,
	}
}

type defaultLogger struct {
	internalLogger *stdLog.Logger
	level          Level
	fields         []Field
}

func (l *defaultLogger) Log(level Level, v ...interface{}) {
	if level == FatalLevel {
		l.internalLogger.Fatal(l.entry(level, fmt.Sprint(v...)))
		return
	}

	if level == PanicLevel {
		panic(fmt.Sprint(v...))
	}

	if level <= l.level {
		l.internalLogger.Print(l.entry(level, fmt.Sprint(v...)))
	}
}

func (l *defaultLogger) Logf(level Level, template string, args ...interface{}) {
	l.Log(level, fmt.Sprintf(template, args...))
}

func (l *defaultLogger) SetLevel(level Level) {
	l.level = level
}

func (l *defaultLogger) WithFields(fields []Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)

	return &defaultLogger{
		internalLogger: l.internalLogger,
		level:          l.level,
		fields:         merged,
	}
}

func (l *defaultLogger) entry(level Level, msg string) string {
	var b strings.Builder

	b.WriteString(levelNames[level])
	b.WriteByte(' ')

	for _, f := range l.fields {
		fmt.Fprintf(&b, "%s=%v ", f.Name, f.Val)
	}

	b.WriteString(msg)

	return b.String()
}

var levelNames = map[Level]string{
	PanicLevel: "panic",
	FatalLevel: "fatal",
	ErrorLevel: "error",
	WarnLevel:  "warn",
	InfoLevel:  "info",
	DebugLevel: "debug",
	TraceLevel: "trace",
}
