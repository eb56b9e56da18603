package store

import (
	"github.com/alchemmist/canvas-snap/internal/logging"
	"github.com/alchemmist/canvas-snap/internal/snapshot"
)

// Export renders the snapshot with the given id as a portable JSON document.
// Rendered bytes are cached, so exports within the cache TTL share their
// exportedAt stamp unless the entry was too large for the cache.
func (s *Store) Export(id string) ([]byte, error) {
	snap, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if b, ok := s.cache.Get(id); ok {
		return b, nil
	}
	b, err := snapshot.MarshalExport(snapshot.NewExport(snap, s.now()))
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(id, b); err != nil {
		s.log.Debugf(logging.CategoryStore, "export of %q not cached: %v", snap.Name, err)
	}
	s.log.Debugf(logging.CategoryStore, "snapshot %q exported (%d bytes)", snap.Name, len(b))
	return b, nil
}

// ExportAt is the positional form of Export.
func (s *Store) ExportAt(index int) (string, []byte, error) {
	id, err := s.IDAt(index)
	if err != nil {
		return "", nil, err
	}
	snap, err := s.Get(id)
	if err != nil {
		return "", nil, err
	}
	b, err := s.Export(id)
	if err != nil {
		return "", nil, err
	}
	return snap.Name, b, nil
}
