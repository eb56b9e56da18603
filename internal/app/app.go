package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alchemmist/canvas-snap/internal/config"
	"github.com/alchemmist/canvas-snap/internal/document"
	"github.com/alchemmist/canvas-snap/internal/logging"
	"github.com/alchemmist/canvas-snap/internal/metrics"
	"github.com/alchemmist/canvas-snap/internal/scene"
	"github.com/alchemmist/canvas-snap/internal/snapshot"
	"github.com/alchemmist/canvas-snap/internal/store"
)

var ErrBlankName = errors.New("snapshot name must not be blank")

// App binds one scene file to a snapshot store. Restores are written back to
// the scene file so the next run starts from the restored state.
type App struct {
	cfg     config.Config
	log     logging.Logger
	metrics metrics.ProviderInterface
	store   *store.Store
	doc     *document.Memory
	docPath string
	now     func() time.Time

	saveMu sync.Mutex
}

func New(cfg config.Config, log logging.Logger, m metrics.ProviderInterface, st *store.Store, doc *document.Memory) *App {
	if log == nil {
		log = logging.Nop()
	}
	if m == nil {
		m = metrics.New(false)
	}
	return &App{
		cfg:     cfg,
		log:     log,
		metrics: m,
		store:   st,
		doc:     doc,
		docPath: cfg.Document,
		now:     time.Now,
	}
}

// OpenDocument loads the scene file named by the config.
func OpenDocument(ctx context.Context, cfg config.Config) (*document.Memory, error) {
	if strings.TrimSpace(cfg.Document) == "" {
		return nil, fmt.Errorf("%w: no scene file given", store.ErrNoDocument)
	}
	doc, err := scene.Load(ctx, cfg.Document)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	return doc, nil
}

func (a *App) Document() *document.Memory { return a.doc }

func (a *App) Store() *store.Store { return a.store }

func (a *App) List() []snapshot.Summary { return a.store.List() }

// Capture saves the live document under name; blank names are rejected here
// so that interactive callers always label their snapshots.
func (a *App) Capture(ctx context.Context, name string) (snapshot.Summary, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return snapshot.Summary{}, ErrBlankName
	}
	return a.store.Capture(ctx, name)
}

func (a *App) Restore(ctx context.Context, index int) (string, error) {
	msg, err := a.store.Restore(ctx, index)
	if err != nil {
		return "", err
	}
	return msg, a.persist(ctx)
}

func (a *App) RestoreID(ctx context.Context, id string) (string, error) {
	msg, err := a.store.RestoreID(ctx, id)
	if err != nil {
		return "", err
	}
	return msg, a.persist(ctx)
}

func (a *App) Delete(index int) (string, error) {
	return a.store.Delete(index)
}

func (a *App) DeleteID(id string) (string, error) {
	return a.store.DeleteID(id)
}

// WriteExport exports the snapshot at index into dir and returns the path.
func (a *App) WriteExport(index int, dir string, compress bool) (string, error) {
	name, b, err := a.store.ExportAt(index)
	if err != nil {
		return "", err
	}
	return a.writeExport(name, b, dir, compress)
}

// ExportScene captures the live document and writes it straight to dir.
func (a *App) ExportScene(ctx context.Context, name, dir string, compress bool) (string, error) {
	sum, err := a.Capture(ctx, name)
	if err != nil {
		return "", err
	}
	b, err := a.store.Export(sum.ID)
	if err != nil {
		return "", err
	}
	return a.writeExport(sum.Name, b, dir, compress)
}

func (a *App) writeExport(name string, b []byte, dir string, compress bool) (string, error) {
	if dir == "" {
		dir = a.cfg.Export.Dir
	}
	if compress {
		var err error
		if b, err = snapshot.Compress(b); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, snapshot.ExportFileName(name, a.now(), compress))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	a.log.Infof(logging.CategoryApp, "snapshot %q exported to %s", name, path)
	return path, nil
}

func (a *App) persist(ctx context.Context) error {
	if a.docPath == "" || a.doc == nil {
		return nil
	}
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if err := scene.Save(ctx, a.docPath, a.doc); err != nil {
		a.log.Errorf(logging.CategoryApp, "write scene %s: %v", a.docPath, err)
		return fmt.Errorf("write scene: %w", err)
	}
	return nil
}

// Inspect describes an export file, plain or zstd-compressed.
func Inspect(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	exp, err := snapshot.UnmarshalExport(b)
	if err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	snap := exp.Snapshot()
	sum := snap.Summary()

	var out strings.Builder
	fmt.Fprintf(&out, "name:     %s\n", sum.Name)
	fmt.Fprintf(&out, "id:       %s\n", sum.ID)
	fmt.Fprintf(&out, "title:    %s\n", snap.Title)
	fmt.Fprintf(&out, "captured: %s\n", sum.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&out, "exported: %s\n", exp.ExportedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&out, "boards:   %d\n", sum.Boards)
	fmt.Fprintf(&out, "elements: %d\n", sum.Elements)
	for _, b := range snap.Boards {
		fmt.Fprintf(&out, "  %-24s %4.0fx%-4.0f %d elements\n", trim(b.Name, 24), b.Width, b.Height, len(b.Elements))
	}
	return out.String(), nil
}
