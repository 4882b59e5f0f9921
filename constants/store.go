package constants

import (
	"log/slog"
	"time"
)

const (
	// DefaultStoreRoot is the root of the file_system artifact store if none is configured
	DefaultStoreRoot = "~/.basic-cleaning/artifacts"
	// BaseTmpDir is the base dir for downloaded artifacts
	BaseTmpDir = "/tmp/basic-cleaning"

	DefaultProject     = "default"
	AliasLatest        = "latest"
	JobTypeBasicClean  = "basic_cleaning"
	ManifestFileName   = "manifest.json"
	DefaultCallTimeout = 60 * time.Second
	DefaultWaitTimeout = 5 * time.Minute
	// DefaultPollInterval is the interval between checks for a committed manifest
	DefaultPollInterval = 500 * time.Millisecond

	LogLevelOff = slog.Level(100)
)
