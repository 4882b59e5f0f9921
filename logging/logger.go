package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/turbot/basic-cleaning/constants"
)

func Initialize(name string) {
	slog.SetDefault(NewLogger(name, os.Stderr))
}

// NewLogger returns a JSON logger writing to w, with the level taken from the environment
func NewLogger(name string, w io.Writer) *slog.Logger {
	level := getLogLevel()
	if level == constants.LogLevelOff {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	}

	handlerOptions := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if isSecretKey(a.Key) {
				return slog.String(a.Key, "****")
			}
			return a
		},
	}
	return slog.New(slog.NewJSONHandler(w, handlerOptions)).With("source", name)
}

func getLogLevel() slog.Leveler {
	levelEnv := os.Getenv(constants.EnvLogLevel)

	switch strings.ToLower(levelEnv) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "off":
		return constants.LogLevelOff
	default:
		// the cleaning step runs standalone so reports progress by default
		return slog.LevelInfo
	}
}

var secretKeys = []string{"secret_key", "session_token", "access_key", "credentials"}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range secretKeys {
		if key == s {
			return true
		}
	}
	return false
}
