package log

import "sync"

const (
	timestampFormat = "02/01/2006 15:04:05"
	spacer          = " | "
)

// mu guards every sub logger's levels and output and the custom hook
var mu sync.RWMutex

// Config sets up the global logger. Level and Output apply to every sub
// logger before SubLoggers overrides are applied
type Config struct {
	// Enabled defaults to true when nil
	Enabled *bool
	Level   string
	Output  string
	// FileName is opened for appending when an output names "file"
	FileName   string
	SubLoggers []SubLoggerConfig
}

// SubLoggerConfig overrides a single sub logger's levels and outputs
type SubLoggerConfig struct {
	Name   string `json:"name,omitempty"`
	Level  string `json:"level"`
	Output string `json:"output"`
}

// Levels flags for each sub logger type
type Levels struct {
	Info, Debug, Warn, Error bool
}
