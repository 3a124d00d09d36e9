// Package logging installs the process-wide slog logger. Records go to
// stdout and to a per-day file under the configured directory, tagged with
// the service network so mainnet and testnet deployments can be told apart
// in shipped logs.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bitagora/paywatch/internal/config"
)

// Setup builds the JSON handler from cfg, makes it the slog default, and
// prunes expired log files. The returned closer owns the day's file handle;
// close it on shutdown.
func Setup(cfg *config.Config) (io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %q: %w", cfg.LogDir, err)
	}

	path := filepath.Join(cfg.LogDir, config.LogFilePrefix+time.Now().Format("2006-01-02")+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}

	handler := slog.NewJSONHandler(io.MultiWriter(os.Stdout, file), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler).With(
		"service", "paywatch",
		"network", cfg.Network,
	))

	slog.Info("logging initialized", "level", level.String(), "file", path)

	if removed := Prune(cfg.LogDir, config.LogMaxAgeDays); removed > 0 {
		slog.Info("pruned expired log files", "count", removed, "maxAgeDays", config.LogMaxAgeDays)
	}
	return file, nil
}

// Prune deletes paywatch log files in dir last modified more than maxAgeDays
// ago and reports how many were removed.
func Prune(dir string, maxAgeDays int) int {
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)

	matches, err := filepath.Glob(filepath.Join(dir, config.LogFilePrefix+"*.log"))
	if err != nil {
		return 0
	}

	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			slog.Warn("could not remove expired log file", "file", path, "error", err)
			continue
		}
		removed++
	}
	return removed
}
