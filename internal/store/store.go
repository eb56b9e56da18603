// Package store keeps the ordered in-memory list of snapshots of one live
// document and implements capture, list, restore and delete over it.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alchemmist/canvas-snap/internal/document"
	"github.com/alchemmist/canvas-snap/internal/element"
	"github.com/alchemmist/canvas-snap/internal/logging"
	"github.com/alchemmist/canvas-snap/internal/metrics"
	"github.com/alchemmist/canvas-snap/internal/snapshot"
)

var (
	ErrNoDocument   = errors.New("no document available")
	ErrInvalidIndex = errors.New("invalid snapshot index")
	ErrNotFound     = errors.New("snapshot not found")
)

// Source returns the live document the store captures from and restores into.
type Source func(ctx context.Context) (document.Document, error)

// Static wraps an already open document.
func Static(doc document.Document) Source {
	return func(context.Context) (document.Document, error) {
		return doc, nil
	}
}

// IDGenerator produces snapshot ids.
type IDGenerator func() string

// UUIDv7 yields time-sortable RFC 9562 ids.
func UUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

type Store struct {
	source  Source
	log     logging.Logger
	metrics metrics.ProviderInterface
	cache   Cache
	now     func() time.Time
	newID   IDGenerator

	// opMu serializes capture, restore and delete; mu guards the list so that
	// readers are not blocked behind a long restore.
	opMu      sync.Mutex
	mu        sync.RWMutex
	snapshots []snapshot.Snapshot
	issued    map[string]struct{}
}

type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithMetrics(m metrics.ProviderInterface) Option {
	return func(s *Store) { s.metrics = m }
}

func WithCache(c Cache) Option {
	return func(s *Store) { s.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) { s.newID = gen }
}

func New(source Source, opts ...Option) *Store {
	s := &Store{
		source:  source,
		log:     logging.Nop(),
		metrics: metrics.New(false),
		cache:   NoopCache(),
		now:     time.Now,
		newID:   UUIDv7,
		issued:  map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.metrics.TrackSnapshots(s.Len)
	return s
}

// Capture walks every board of the live document into a new snapshot and
// appends it. A blank name defaults to "Snapshot <n>" where n is the 1-based
// position the snapshot takes. Nothing is appended on error.
func (s *Store) Capture(ctx context.Context, name string) (snapshot.Summary, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	started := time.Now()
	snap, err := s.capture(ctx)
	if err != nil {
		s.metrics.IncCaptures("error")
		s.log.Errorf(logging.CategoryStore, "capture failed: %v", err)
		return snapshot.Summary{}, err
	}

	s.mu.Lock()
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Snapshot %d", len(s.snapshots)+1)
	}
	snap.ID = s.uniqueIDLocked()
	snap.Name = name
	snap.CreatedAt = s.now().UTC()
	s.snapshots = append(s.snapshots, snap)
	s.mu.Unlock()

	s.metrics.IncCaptures("ok")
	s.metrics.ObserveCaptureDuration(time.Since(started))
	sum := snap.Summary()
	s.log.Infof(logging.CategoryStore, "snapshot %q saved (%d boards, %d elements)", sum.Name, sum.Boards, sum.Elements)
	return sum, nil
}

func (s *Store) capture(ctx context.Context) (snapshot.Snapshot, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	boards, err := doc.Boards(ctx)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("list boards: %w", err)
	}

	out := snapshot.Snapshot{
		Title:  doc.Title(),
		Boards: make([]snapshot.Board, 0, len(boards)),
	}
	for i, b := range boards {
		sb, err := element.SerializeBoard(ctx, b, i)
		if err != nil {
			return snapshot.Snapshot{}, err
		}
		out.Boards = append(out.Boards, sb)
	}

	if th, ok := doc.(document.Thumbnailer); ok {
		img, err := th.Thumbnail(ctx)
		if err != nil {
			s.log.Debugf(logging.CategoryStore, "thumbnail unavailable: %v", err)
		} else {
			out.Thumbnail = img
		}
	}
	return out, nil
}

// List returns summaries, oldest first.
func (s *Store) List() []snapshot.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]snapshot.Summary, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap.Summary())
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// IDAt translates a list position into the snapshot id.
func (s *Store) IDAt(index int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.snapshots) {
		return "", fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, index, len(s.snapshots))
	}
	return s.snapshots[index].ID, nil
}

// Get returns a copy of the snapshot with the given id.
func (s *Store) Get(id string) (snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return snapshot.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.snapshots[i].Clone(), nil
}

// Restore replaces the live document with the snapshot at index.
func (s *Store) Restore(ctx context.Context, index int) (string, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	id, err := s.IDAt(index)
	if err != nil {
		return "", err
	}
	return s.restore(ctx, id)
}

func (s *Store) RestoreID(ctx context.Context, id string) (string, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.restore(ctx, id)
}

// restore clears every board and rebuilds the snapshot in stored order. A
// failing element is logged and skipped; boards already rebuilt stay in place
// when a later board fails.
func (s *Store) restore(ctx context.Context, id string) (string, error) {
	snap, err := s.Get(id)
	if err != nil {
		return "", err
	}
	doc, err := s.document(ctx)
	if err != nil {
		s.metrics.IncRestores("error")
		return "", err
	}
	if err := doc.ClearBoards(ctx); err != nil {
		s.metrics.IncRestores("error")
		return "", fmt.Errorf("clear document: %w", err)
	}

	skipped := 0
	for _, sb := range snap.Boards {
		board, err := doc.CreateBoard(ctx, sb.Name, sb.Width, sb.Height)
		if err != nil {
			s.metrics.IncRestores("error")
			return "", fmt.Errorf("create board %q: %w", sb.Name, err)
		}
		for i, se := range sb.Elements {
			if err := ctx.Err(); err != nil {
				s.metrics.IncRestores("error")
				return "", err
			}
			if !s.restoreElement(ctx, doc, board, se, i) {
				skipped++
			}
		}
	}

	s.metrics.IncRestores("ok")
	if skipped > 0 {
		s.log.Warnf(logging.CategoryStore, "snapshot %q restored with %d skipped elements", snap.Name, skipped)
	} else {
		s.log.Infof(logging.CategoryStore, "snapshot %q restored", snap.Name)
	}
	return fmt.Sprintf("Restored snapshot: %s", snap.Name), nil
}

func (s *Store) restoreElement(ctx context.Context, doc document.Document, board document.Board, se snapshot.Element, pos int) bool {
	node, err := element.Deserialize(ctx, doc, se)
	if err != nil {
		s.metrics.IncElementFailures(string(se.Kind()))
		s.log.Warnf(logging.CategoryStore, "failed to restore element %d on board %q: %v", pos, board.Name(), err)
		return false
	}
	if node == nil {
		if g, ok := se.(*snapshot.Generic); ok {
			s.log.Warnf(logging.CategoryStore, "skipping element %d of unsupported type %q", pos, g.HostType)
		}
		return false
	}
	if err := board.Append(ctx, node); err != nil {
		s.metrics.IncElementFailures(string(se.Kind()))
		s.log.Warnf(logging.CategoryStore, "failed to attach element %d on board %q: %v", pos, board.Name(), err)
		return false
	}
	return true
}

// Delete removes the snapshot at index; later snapshots shift down by one.
func (s *Store) Delete(index int) (string, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	id, err := s.IDAt(index)
	if err != nil {
		return "", err
	}
	return s.delete(id)
}

func (s *Store) DeleteID(id string) (string, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.delete(id)
}

func (s *Store) delete(id string) (string, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	deleted := s.snapshots[i]
	s.snapshots = slices.Delete(s.snapshots, i, i+1)
	s.mu.Unlock()

	s.cache.Del(id)
	s.metrics.IncDeletes()
	s.log.Infof(logging.CategoryStore, "snapshot %q deleted", deleted.Name)
	return fmt.Sprintf("Deleted snapshot: %s", deleted.Name), nil
}

func (s *Store) document(ctx context.Context) (document.Document, error) {
	if s.source == nil {
		return nil, ErrNoDocument
	}
	doc, err := s.source(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDocument, err)
	}
	if doc == nil {
		return nil, ErrNoDocument
	}
	return doc, nil
}

func (s *Store) indexLocked(id string) int {
	for i := range s.snapshots {
		if s.snapshots[i].ID == id {
			return i
		}
	}
	return -1
}

// uniqueIDLocked never hands out an id twice during the store's lifetime,
// even one whose snapshot has been deleted.
func (s *Store) uniqueIDLocked() string {
	id := s.newID()
	for _, seen := s.issued[id]; seen || id == ""; _, seen = s.issued[id] {
		id = UUIDv7()
	}
	s.issued[id] = struct{}{}
	return id
}
