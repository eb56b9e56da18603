package app

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alchemmist/canvas-snap/internal/logging"
)

// RunAutosave captures an "Autosave <RFC3339>" snapshot every interval until
// ctx is done. A non-positive interval falls back to the configured one; when
// that is zero too, RunAutosave returns at once.
func (a *App) RunAutosave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = a.cfg.Autosave.Interval
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.autosave(ctx)
		}
	}
}

func (a *App) autosave(ctx context.Context) {
	name := "Autosave " + a.now().UTC().Format(time.RFC3339)
	if _, err := a.store.Capture(ctx, name); err != nil {
		a.log.Errorf(logging.CategoryApp, "autosave error: %v", err)
	}
}

// Lock takes the per-scene instance lock for the app's document.
func (a *App) Lock() (func(), error) {
	return acquireLock(a.docPath)
}

func acquireLock(scenePath string) (func(), error) {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = os.TempDir()
	}
	if err := os.MkdirAll(runtimeDir, 0o755); err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(scenePath); err == nil {
		scenePath = abs
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(scenePath))
	lockPath := filepath.Join(runtimeDir, fmt.Sprintf("canvas-snap-%x.lock", h.Sum64()))
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("scene %s is already open in another canvas-snap", filepath.Base(scenePath))
	}
	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
	}, nil
}
