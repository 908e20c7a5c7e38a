package log

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Info takes a pointer subLogger struct and string sends to StageLogEvent
func Info(sl *SubLogger, data string) {
	stage(sl, levelInfo, func() string { return data })
}

// Infoln takes a pointer subLogger struct and interface sends to StageLogEvent
func Infoln(sl *SubLogger, v ...any) {
	stage(sl, levelInfo, func() string { return fmt.Sprint(v...) })
}

// Infof takes a pointer subLogger struct, string and interface formats sends to StageLogEvent
func Infof(sl *SubLogger, data string, v ...any) {
	stage(sl, levelInfo, func() string { return fmt.Sprintf(data, v...) })
}

// Debug takes a pointer subLogger struct and string sends to StageLogEvent
func Debug(sl *SubLogger, data string) {
	stage(sl, levelDebug, func() string { return data })
}

// Debugf takes a pointer subLogger struct, string and interface formats sends to StageLogEvent
func Debugf(sl *SubLogger, data string, v ...any) {
	stage(sl, levelDebug, func() string { return fmt.Sprintf(data, v...) })
}

// Warn takes a pointer subLogger struct & string and sends to StageLogEvent
func Warn(sl *SubLogger, data string) {
	stage(sl, levelWarn, func() string { return data })
}

// Warnf takes a pointer subLogger struct, string and interface formats sends to StageLogEvent
func Warnf(sl *SubLogger, data string, v ...any) {
	stage(sl, levelWarn, func() string { return fmt.Sprintf(data, v...) })
}

// Error takes a pointer subLogger struct & interface formats and sends to StageLogEvent
func Error(sl *SubLogger, data string) {
	stage(sl, levelError, func() string { return data })
}

// Errorln takes a pointer subLogger struct, string & interface formats and sends to StageLogEvent
func Errorln(sl *SubLogger, v ...any) {
	stage(sl, levelError, func() string { return fmt.Sprint(v...) })
}

// Errorf takes a pointer subLogger struct, string and interface formats sends to StageLogEvent
func Errorf(sl *SubLogger, data string, v ...any) {
	stage(sl, levelError, func() string { return fmt.Sprintf(data, v...) })
}

type level uint8

const (
	levelInfo level = iota
	levelDebug
	levelWarn
	levelError
)

func (l level) header() string {
	switch l {
	case levelDebug:
		return "[DEBUG]"
	case levelWarn:
		return "[WARN]"
	case levelError:
		return "[ERROR]"
	default:
		return "[INFO]"
	}
}

func (sl *SubLogger) enabled(l level) bool {
	switch l {
	case levelInfo:
		return sl.Info
	case levelDebug:
		return sl.Debug
	case levelWarn:
		return sl.Warn
	case levelError:
		return sl.Error
	}
	return false
}

// CustomLogHook receives every staged log line. Returning true stops the
// line being written to the sub logger's output
type CustomLogHook func(header, subLoggerName string, a ...any) (handled bool)

var customLogHook CustomLogHook

// SetCustomLogHook installs h, or removes the hook when h is nil
func SetCustomLogHook(h CustomLogHook) {
	mu.Lock()
	customLogHook = h
	mu.Unlock()
}

func stage(sl *SubLogger, l level, deferred func() string) {
	if sl == nil {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	if !sl.enabled(l) || sl.output == nil {
		return
	}
	header := l.header()
	data := deferred()
	if customLogHook != nil && customLogHook(header, sl.name, data) {
		return
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString(spacer)
	b.WriteString(time.Now().Format(timestampFormat))
	b.WriteString(spacer)
	b.WriteString(sl.name)
	b.WriteString(spacer)
	b.WriteString(data)
	if !strings.HasSuffix(data, "\n") {
		b.WriteByte('\n')
	}
	if _, err := sl.output.Write([]byte(b.String())); err != nil {
		displayError(err)
	}
}

func displayError(err error) {
	if err != nil {
		log.Printf("Logger write error: %v\n", err)
	}
}
