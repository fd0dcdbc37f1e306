// Package lambda adapts API Gateway proxy and S3 notification events to the
// gateway and the attachment relay.
package lambda

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/app"
	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/observability"
)

// BuildFunc constructs the application for one function.
type BuildFunc func(ctx context.Context) (*app.App, error)

// Runtime builds the App on first use and keeps it for warm invocations. A
// failed build is retried on the next invocation.
type Runtime struct {
	mu     sync.Mutex
	build  BuildFunc
	app    *app.App
	logger *zap.Logger
}

// NewRuntime wraps build.
func NewRuntime(build BuildFunc, logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{build: build, logger: logger}
}

// NewRuntimeFromEnv loads configuration and the logger once per container
// and defers building the App for needs until the first invocation. The
// logger is named after function and tagged with the stage.
func NewRuntimeFromEnv(function string, needs app.Needs) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	base, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, err
	}
	logger := observability.FunctionLogger(base, function, cfg.App.Stage)
	build := func(ctx context.Context) (*app.App, error) {
		return app.Build(ctx, cfg, logger, needs)
	}
	return NewRuntime(build, logger), nil
}

// App returns the built application.
func (r *Runtime) App(ctx context.Context) (*app.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.app != nil {
		return r.app, nil
	}
	a, err := r.build(ctx)
	if err != nil {
		r.logger.Error("bootstrap failed", zap.Error(err))
		return nil, err
	}
	r.app = a
	return a, nil
}

// Close releases the built application, if any.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.app == nil {
		return nil
	}
	err := r.app.Close(ctx)
	r.app = nil
	return err
}
