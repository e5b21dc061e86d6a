// Package svcctx provides service context for dependency injection via
// context. Commands assemble Services once at startup; components extract
// what they need via the individual extractors.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/inkstone/zhanghui/internal/classifier"
	"github.com/inkstone/zhanghui/internal/config"
	"github.com/inkstone/zhanghui/internal/home"
)

// Services holds all core services that flow through context.
type Services struct {
	Config     *config.Manager
	Logger     *slog.Logger
	Home       *home.Dir
	Classifier classifier.Classifier // nil when the classifier is disabled
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// ClassifierFrom extracts the classifier from context. Nil means run
// heuristics only.
func ClassifierFrom(ctx context.Context) classifier.Classifier {
	if s := ServicesFrom(ctx); s != nil {
		return s.Classifier
	}
	return nil
}
