package consts

import (
	"os"
	"path/filepath"
)

const (
	TracksyncDirName  = ".tracksync"
	ConfigFileName    = "config.yaml"
	ScheduleFileName  = "schedule.json"
	AuditLogFileName  = "audit.jsonl"
)

func TracksyncHomeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, TracksyncDirName)
}

func DefaultConfigPath() string {
	return filepath.Join(TracksyncHomeDir(), ConfigFileName)
}

func DefaultSchedulePath() string {
	return filepath.Join(TracksyncHomeDir(), ScheduleFileName)
}

func DefaultAuditLogPath() string {
	return filepath.Join(TracksyncHomeDir(), AuditLogFileName)
}
