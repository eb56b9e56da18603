package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alchemmist/canvas-snap/internal/document"
	"github.com/alchemmist/canvas-snap/internal/snapshot"
	"github.com/alchemmist/canvas-snap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func names(sums []snapshot.Summary) []string {
	out := make([]string, 0, len(sums))
	for _, s := range sums {
		out = append(out, s.Name)
	}
	return out
}

func newStore(t *testing.T, doc document.Document, opts ...Option) *Store {
	t.Helper()
	base := []Option{WithIDGenerator(seqIDs()), WithClock(fixedClock())}
	return New(Static(doc), append(base, opts...)...)
}

func addRect(t *testing.T, doc *document.Memory, board document.Board, x, y float64) {
	t.Helper()
	ctx := context.Background()
	n, err := doc.CreateNode(ctx, document.KindRectangle)
	require.NoError(t, err)
	require.NoError(t, n.MoveInParent(x, y))
	require.NoError(t, board.Append(ctx, n))
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	doc := document.NewMemory("Poster")
	s := newStore(t, doc)

	_, err := s.Capture(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, names(s.List()))

	board, err := doc.CreateBoard(ctx, "Main", 100, 100)
	require.NoError(t, err)
	addRect(t, doc, board, 10, 10)
	_, err = s.Capture(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, names(s.List()))

	msg, err := s.Restore(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Restored snapshot: v1", msg)
	boards, err := doc.Boards(ctx)
	require.NoError(t, err)
	assert.Empty(t, boards)

	msg, err = s.Delete(0)
	require.NoError(t, err)
	assert.Equal(t, "Deleted snapshot: v1", msg)
	assert.Equal(t, []string{"v2"}, names(s.List()))

	_, err = s.Restore(ctx, 0)
	require.NoError(t, err)
	boards, err = doc.Boards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	children, err := boards[0].Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, document.Rect{X: 10, Y: 10}, children[0].Bounds())
}

func TestCaptureSummaryAndDefaults(t *testing.T) {
	ctx := context.Background()
	doc, err := testutil.Fixture(ctx)
	require.NoError(t, err)
	doc.SetThumbnail([]byte{0x89, 'P', 'N', 'G'})
	s := newStore(t, doc)

	sum, err := s.Capture(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "id-1", sum.ID)
	assert.Equal(t, "Snapshot 1", sum.Name)
	assert.Equal(t, 1, sum.Boards)
	assert.Equal(t, 3, sum.Elements)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC), sum.CreatedAt)

	sum, err = s.Capture(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, "Snapshot 2", sum.Name)

	snap, err := s.Get("id-1")
	require.NoError(t, err)
	assert.Equal(t, "Fixture", snap.Title)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, snap.Thumbnail)
}

func TestCaptureNoDocument(t *testing.T) {
	failing := New(func(context.Context) (document.Document, error) {
		return nil, errors.New("editor closed")
	})
	_, err := failing.Capture(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoDocument)
	assert.Equal(t, 0, failing.Len())

	_, err = New(nil).Capture(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoDocument)

	_, err = New(Static(nil)).Capture(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestCaptureIsAllOrNothing(t *testing.T) {
	doc := &testutil.FlakyDocument{Document: document.NewMemory(""), FailList: true}
	s := newStore(t, doc)

	_, err := s.Capture(context.Background(), "broken")
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.Empty(t, s.List())
}

func TestIDsAreNeverReused(t *testing.T) {
	ctx := context.Background()
	s := New(Static(document.NewMemory("")), WithIDGenerator(func() string { return "same" }))

	a, err := s.Capture(ctx, "a")
	require.NoError(t, err)
	_, err = s.DeleteID(a.ID)
	require.NoError(t, err)
	b, err := s.Capture(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, "same", a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestPositionalIntegrityAfterDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, document.NewMemory(""))
	for _, n := range []string{"A", "B", "C"} {
		_, err := s.Capture(ctx, n)
		require.NoError(t, err)
	}

	_, err := s.Delete(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, names(s.List()))

	msg, err := s.Delete(1)
	require.NoError(t, err)
	assert.Equal(t, "Deleted snapshot: C", msg)
	assert.Equal(t, []string{"A"}, names(s.List()))
}

func TestInvalidIndexLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, document.NewMemory(""))
	_, err := s.Capture(ctx, "only")
	require.NoError(t, err)
	before := s.List()

	_, err = s.Restore(ctx, -1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = s.Restore(ctx, 1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = s.Delete(1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = s.Delete(-3)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, _, err = s.ExportAt(5)
	assert.ErrorIs(t, err, ErrInvalidIndex)

	assert.Equal(t, before, s.List())
}

func TestUnknownIDIsNotFound(t *testing.T) {
	s := newStore(t, document.NewMemory(""))
	_, err := s.RestoreID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.DeleteID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Export("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestoreSkipsUnreconstructibleElements(t *testing.T) {
	ctx := context.Background()
	doc, err := testutil.Fixture(ctx)
	require.NoError(t, err)
	log := &testutil.MockLogger{}
	s := newStore(t, doc, WithLogger(log))

	_, err = s.Capture(ctx, "with image")
	require.NoError(t, err)
	require.NoError(t, doc.ClearBoards(ctx))

	msg, err := s.Restore(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Restored snapshot: with image", msg)

	boards, err := doc.Boards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "Cover", boards[0].Name())
	children, err := boards[0].Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, document.KindRectangle, children[0].Kind())
	assert.Equal(t, document.KindText, children[1].Kind())

	warns := log.Level("warn")
	require.NotEmpty(t, warns)
	assert.True(t, strings.Contains(warns[0].Message, "ImageNode"))
}

func TestRestoreHostFailureIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	mem, err := testutil.Fixture(ctx)
	require.NoError(t, err)
	flaky := &testutil.FlakyDocument{Document: mem}
	log := &testutil.MockLogger{}
	s := newStore(t, flaky, WithLogger(log))

	_, err = s.Capture(ctx, "v1")
	require.NoError(t, err)

	flaky.FailKinds = map[document.Kind]bool{document.KindRectangle: true}
	_, err = s.Restore(ctx, 0)
	require.NoError(t, err)

	boards, err := mem.Boards(ctx)
	require.NoError(t, err)
	children, err := boards[0].Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, document.KindText, children[0].Kind())
	assert.GreaterOrEqual(t, len(log.Level("warn")), 2)
}

func TestRestoreClearFailureIsReported(t *testing.T) {
	ctx := context.Background()
	flaky := &testutil.FlakyDocument{Document: document.NewMemory("")}
	s := newStore(t, flaky)
	_, err := s.Capture(ctx, "v1")
	require.NoError(t, err)

	flaky.FailClear = true
	_, err = s.Restore(ctx, 0)
	assert.ErrorIs(t, err, testutil.ErrInjected)
}

func TestRestoreCancelled(t *testing.T) {
	ctx := context.Background()
	doc, err := testutil.Fixture(ctx)
	require.NoError(t, err)
	s := newStore(t, doc)
	_, err = s.Capture(ctx, "v1")
	require.NoError(t, err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Restore(cctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRoundTripPreservesOrderAndGeometry(t *testing.T) {
	ctx := context.Background()
	doc := document.NewMemory("")
	for _, name := range []string{"one", "two"} {
		b, err := doc.CreateBoard(ctx, name, 640, 480)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			addRect(t, doc, b, float64(i*10), float64(i*20))
		}
	}
	s := newStore(t, doc)
	_, err := s.Capture(ctx, "layout")
	require.NoError(t, err)
	before, err := s.Get("id-1")
	require.NoError(t, err)

	require.NoError(t, doc.ClearBoards(ctx))
	_, err = s.RestoreID(ctx, "id-1")
	require.NoError(t, err)
	_, err = s.Capture(ctx, "after")
	require.NoError(t, err)
	after, err := s.Get("id-2")
	require.NoError(t, err)

	require.Len(t, after.Boards, len(before.Boards))
	for i := range before.Boards {
		assert.Equal(t, before.Boards[i].Name, after.Boards[i].Name)
		require.Len(t, after.Boards[i].Elements, len(before.Boards[i].Elements))
		for j := range before.Boards[i].Elements {
			want := *before.Boards[i].Elements[j].Base()
			got := *after.Boards[i].Elements[j].Base()
			want.ID, got.ID = "", ""
			assert.Equal(t, want, got)
		}
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	doc, err := testutil.Fixture(ctx)
	require.NoError(t, err)
	s := newStore(t, doc)
	_, err = s.Capture(ctx, "v1")
	require.NoError(t, err)

	snap, err := s.Get("id-1")
	require.NoError(t, err)
	snap.Boards[0].Elements = nil
	snap.Name = "mutated"

	again, err := s.Get("id-1")
	require.NoError(t, err)
	assert.Equal(t, "v1", again.Name)
	assert.Len(t, again.Boards[0].Elements, 3)
}

func TestExportUsesCacheAndDropsOnDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, document.NewMemory("Doc"), WithCache(NewCache(1, 0)))
	_, err := s.Capture(ctx, "v1")
	require.NoError(t, err)

	first, err := s.Export("id-1")
	require.NoError(t, err)
	second, err := s.Export("id-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	exp, err := snapshot.UnmarshalExport(first)
	require.NoError(t, err)
	assert.Equal(t, "v1", exp.Name)
	assert.Equal(t, "Doc", exp.Title)

	_, err = s.DeleteID("id-1")
	require.NoError(t, err)
	_, err = s.Export("id-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportCachesLargeSnapshots(t *testing.T) {
	ctx := context.Background()
	doc := document.NewMemory("Doc")
	board, err := doc.CreateBoard(ctx, "Grid", 2000, 1000)
	require.NoError(t, err)
	for i := 0; i < 80; i++ {
		addRect(t, doc, board, float64(i*10), float64(i*5))
	}
	log := &testutil.MockLogger{}
	s := newStore(t, doc, WithLogger(log), WithCache(NewCache(8, 10*time.Minute)))
	_, err = s.Capture(ctx, "big")
	require.NoError(t, err)

	first, err := s.Export("id-1")
	require.NoError(t, err)
	require.Greater(t, len(first), 8*1024)
	second, err := s.Export("id-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	for _, e := range log.Level("debug") {
		assert.NotContains(t, e.Message, "not cached")
	}
}

type rejectingCache struct{ noopCache }

func (rejectingCache) Set(string, []byte) error { return errors.New("entry too large") }

func TestExportLogsRejectedCacheEntry(t *testing.T) {
	log := &testutil.MockLogger{}
	s := newStore(t, document.NewMemory("Doc"), WithLogger(log), WithCache(rejectingCache{}))
	_, err := s.Capture(context.Background(), "v1")
	require.NoError(t, err)

	_, err = s.Export("id-1")
	require.NoError(t, err)
	found := false
	for _, e := range log.Level("debug") {
		if strings.Contains(e.Message, `export of "v1" not cached: entry too large`) {
			found = true
		}
	}
	assert.True(t, found, "expected cache rejection to be logged: %+v", log.Logs)
}

func TestDeleteReleasesRemovedSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, document.NewMemory("Doc"))
	for _, n := range []string{"a", "b", "c"} {
		_, err := s.Capture(ctx, n)
		require.NoError(t, err)
	}
	_, err := s.Delete(0)
	require.NoError(t, err)

	full := s.snapshots[:cap(s.snapshots)]
	require.Len(t, s.snapshots, 2)
	for _, snap := range full[len(s.snapshots):] {
		assert.Empty(t, snap.ID)
		assert.Nil(t, snap.Boards)
	}
	assert.Equal(t, []string{"b", "c"}, names(s.List()))
}
