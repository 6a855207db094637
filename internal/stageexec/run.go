package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"voxarchive/internal/logging"
	"voxarchive/internal/services"
)

// ErrLocked reports that another stage run holds the catalog lock.
var ErrLocked = errors.New("another voxarchive stage is running")

// Options controls stage execution.
type Options struct {
	Logger    *slog.Logger
	LockPath  string
	StageName string
}

// Func is the body of a stage run. The attributes it returns are attached to
// the completion log line.
type Func func(ctx context.Context, logger *slog.Logger) ([]logging.Attr, error)

// Run executes fn while holding the catalog lock, with the stage name and a
// fresh correlation ID attached to the context and logger.
func Run(ctx context.Context, opts Options, fn Func) error {
	if fn == nil {
		return fmt.Errorf("stage body unavailable: %s", opts.StageName)
	}
	if opts.LockPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LockPath), 0o755); err != nil {
			return fmt.Errorf("create lock directory: %w", err)
		}
		lock := flock.New(opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return services.Wrap(services.ErrConfiguration, opts.StageName, "acquire lock",
				fmt.Sprintf("%s (lock %s)", ErrLocked, opts.LockPath), ErrLocked)
		}
		defer func() {
			_ = lock.Unlock()
		}()
	}

	stageCtx := services.WithStage(ctx, opts.StageName)
	stageCtx = services.WithRequestID(stageCtx, uuid.NewString())
	stageLogger := logging.WithContext(stageCtx, opts.Logger)

	started := time.Now()
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	attrs, err := fn(stageCtx, stageLogger)
	elapsed := time.Since(started).Round(time.Millisecond)
	if err != nil {
		logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
		return err
	}

	attrs = append(attrs,
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", elapsed),
	)
	stageLogger.Info("stage completed", logging.Args(attrs...)...)
	return nil
}
