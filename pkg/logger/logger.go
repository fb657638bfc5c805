package logger

import (
	"log/slog"
	"os"
)

// Init configure le logger global : texte + Debug en local, JSON + Info ailleurs.
func Init(env string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == "local" {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if env == "local" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
