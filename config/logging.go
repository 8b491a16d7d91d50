package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger 按日志配置创建 zerolog.Logger。format 为 console 时输出人类可读格式。
func (c LoggingConfig) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || c.Level == "" {
		level = zerolog.InfoLevel
	}
	if c.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
