package log

import "io"

// Global vars related to the logger package
var (
	subLoggers = map[string]*SubLogger{}

	Global     *SubLogger
	ConfigMgr  *SubLogger
	EngineMgr  *SubLogger
	Analysis   *SubLogger
	Strategy   *SubLogger
	Aggregator *SubLogger
	RiskMgr    *SubLogger
	Lifecycle  *SubLogger
	Ledger     *SubLogger
	Execution  *SubLogger
	Audit      *SubLogger
	Database   *SubLogger
	Feed       *SubLogger
	APIServer  *SubLogger
)

// SubLogger writes one subsystem's lines at its enabled levels
type SubLogger struct {
	name string
	Levels
	output io.Writer
}
