package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thrasher-corp/swingtrader/common/convert"
)

var (
	errSubloggerConfigIsNil  = errors.New("sublogger config is nil")
	errUnhandledOutputWriter = errors.New("unhandled output writer")
	errSubLoggerNotFound     = errors.New("sub logger not found")
	errFileNameNotSet        = errors.New("file output requested but no filename set")
)

func getWriters(output string, file io.Writer) (io.Writer, error) {
	mw, err := MultiWriter()
	if err != nil {
		return nil, err
	}
	for _, name := range strings.Split(output, "|") {
		var writer io.Writer
		switch strings.ToLower(name) {
		case "stdout", "console":
			writer = os.Stdout
		case "stderr":
			writer = os.Stderr
		case "file":
			if file == nil {
				return nil, errFileNameNotSet
			}
			writer = file
		case "discard", "":
			writer = io.Discard
		default:
			return nil, fmt.Errorf("%w: %s", errUnhandledOutputWriter, name)
		}
		if err = mw.Add(writer); err != nil {
			return nil, err
		}
	}
	return mw, nil
}

// GenDefaultSettings returns console logging of info, warnings and errors
func GenDefaultSettings() Config {
	return Config{
		Enabled: convert.BoolPtr(true),
		Level:   "INFO|WARN|ERROR",
		Output:  "console",
	}
}

// SetupGlobalLogger applies the supplied configuration to every registered
// sub logger, then applies any per sub logger overrides
func SetupGlobalLogger(c *Config) error {
	if c == nil {
		return errSubloggerConfigIsNil
	}
	var file io.Writer
	if c.FileName != "" {
		f, err := os.OpenFile(c.FileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		file = f
	}

	mu.Lock()
	defer mu.Unlock()
	enabled := c.Enabled == nil || *c.Enabled
	for _, sl := range subLoggers {
		if !enabled {
			sl.Levels = Levels{}
			sl.output = io.Discard
			continue
		}
		output, err := getWriters(c.Output, file)
		if err != nil {
			return err
		}
		sl.Levels = splitLevel(c.Level)
		sl.output = output
	}
	for x := range c.SubLoggers {
		output, err := getWriters(c.SubLoggers[x].Output, file)
		if err != nil {
			return err
		}
		if err = configureSubLogger(c.SubLoggers[x].Name, c.SubLoggers[x].Level, output); err != nil {
			return err
		}
	}
	return nil
}

// SetOutput redirects a sub logger to a writer with the supplied levels.
// Used by tests and embedding callers that want to capture output
func SetOutput(sl *SubLogger, levels string, w io.Writer) error {
	if sl == nil {
		return errSubloggerConfigIsNil
	}
	mu.Lock()
	defer mu.Unlock()
	return configureSubLogger(sl.name, levels, w)
}

func configureSubLogger(subLogger, levels string, output io.Writer) error {
	logPtr, found := subLoggers[strings.ToUpper(subLogger)]
	if !found {
		return fmt.Errorf("%w: %v", errSubLoggerNotFound, subLogger)
	}
	logPtr.output = output
	logPtr.Levels = splitLevel(levels)
	return nil
}

func splitLevel(level string) (l Levels) {
	enabledLevels := strings.Split(level, "|")
	for x := range enabledLevels {
		switch strings.ToUpper(enabledLevels[x]) {
		case "DEBUG":
			l.Debug = true
		case "INFO":
			l.Info = true
		case "WARN":
			l.Warn = true
		case "ERROR":
			l.Error = true
		}
	}
	return
}

func registerNewSubLogger(subLogger string) *SubLogger {
	temp := SubLogger{
		name:   strings.ToUpper(subLogger),
		output: os.Stdout,
	}
	temp.Levels = splitLevel("INFO|WARN|ERROR")
	subLoggers[temp.name] = &temp
	return &temp
}

// register all loggers at package init()
func init() {
	Global = registerNewSubLogger("LOG")
	ConfigMgr = registerNewSubLogger("CONFIG")
	EngineMgr = registerNewSubLogger("ENGINE")
	Analysis = registerNewSubLogger("ANALYSIS")
	Strategy = registerNewSubLogger("STRATEGY")
	Aggregator = registerNewSubLogger("AGGREGATOR")
	RiskMgr = registerNewSubLogger("RISK")
	Lifecycle = registerNewSubLogger("LIFECYCLE")
	Ledger = registerNewSubLogger("LEDGER")
	Execution = registerNewSubLogger("EXECUTION")
	Audit = registerNewSubLogger("AUDIT")
	Database = registerNewSubLogger("DATABASE")
	Feed = registerNewSubLogger("FEED")
	APIServer = registerNewSubLogger("API")
}
