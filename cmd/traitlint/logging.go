package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"traitlint/internal/scan"
)

var logger = zap.NewNop()

// newLogger builds the console logger used by every command. Logs go to
// stderr so they never mix with diagnostics on stdout.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		Encoding:          "console",
		EncoderConfig:     enc,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: lvl > zapcore.DebugLevel,
	}
	return cfg.Build()
}

func setupLogging(cmd *cobra.Command) error {
	level, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return err
	}
	l, err := newLogger(level)
	if err != nil {
		return err
	}
	logger = l
	scan.SetLogger(l.Named("scan"))
	return nil
}

func syncLogger() {
	// stderr sync fails on some terminals; nothing to do about it
	_ = logger.Sync()
}
