package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

const ExportType = "snapshot-export"

var ErrNotExport = errors.New("not a snapshot export")

// Export is the portable form of a single snapshot.
type Export struct {
	Type       string    `json:"type"`
	Version    int       `json:"version"`
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Timestamp  time.Time `json:"timestamp"`
	ExportedAt time.Time `json:"exportedAt"`
	Title      string    `json:"title"`
	Thumbnail  []byte    `json:"thumbnail,omitempty"`
	Boards     []Board   `json:"boards"`
}

func NewExport(s Snapshot, now time.Time) Export {
	c := s.Clone()
	return Export{
		Type:       ExportType,
		Version:    FormatVersion,
		ID:         c.ID,
		Name:       c.Name,
		Timestamp:  c.CreatedAt.UTC(),
		ExportedAt: now.UTC(),
		Title:      c.Title,
		Thumbnail:  c.Thumbnail,
		Boards:     c.Boards,
	}
}

func (e Export) Snapshot() Snapshot {
	return Snapshot{
		ID:        e.ID,
		Name:      e.Name,
		CreatedAt: e.Timestamp,
		Title:     e.Title,
		Thumbnail: e.Thumbnail,
		Boards:    e.Boards,
	}
}

func MarshalExport(e Export) ([]byte, error) {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// UnmarshalExport accepts plain JSON or a zstd frame holding it.
func UnmarshalExport(b []byte) (Export, error) {
	if IsCompressed(b) {
		raw, err := Decompress(b)
		if err != nil {
			return Export{}, fmt.Errorf("decompress export: %w", err)
		}
		b = raw
	}
	var e Export
	if err := json.Unmarshal(b, &e); err != nil {
		return Export{}, fmt.Errorf("decode export: %w", err)
	}
	if e.Type != ExportType {
		return Export{}, fmt.Errorf("%w: type %q", ErrNotExport, e.Type)
	}
	if e.Version == 0 {
		e.Version = FormatVersion
	}
	return e, nil
}

// ExportFileName builds snapshot_<name>_<unix millis>.json. Every UTF-16 code
// unit of the name outside [A-Za-z0-9] becomes an underscore before the name
// is lowercased, so a character outside the BMP yields two underscores.
func ExportFileName(name string, now time.Time, compressed bool) string {
	var clean strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			clean.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			clean.WriteRune(r + ('a' - 'A'))
		default:
			n := utf16.RuneLen(r)
			if n < 1 {
				n = 1
			}
			clean.WriteString(strings.Repeat("_", n))
		}
	}
	out := fmt.Sprintf("snapshot_%s_%d.json", clean.String(), now.UnixMilli())
	if compressed {
		out += ".zst"
	}
	return out
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func codec() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil)
		if codecErr != nil {
			codecErr = fmt.Errorf("failed to create zstd encoder: %w", codecErr)
			return
		}
		decoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if codecErr != nil {
			codecErr = fmt.Errorf("failed to create zstd decoder: %w", codecErr)
		}
	})
	return encoder, decoder, codecErr
}

func IsCompressed(b []byte) bool {
	return bytes.HasPrefix(b, zstdMagic)
}

func Compress(b []byte) ([]byte, error) {
	enc, _, err := codec()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(b, make([]byte, 0, len(b)/2)), nil
}

func Decompress(b []byte) ([]byte, error) {
	_, dec, err := codec()
	if err != nil {
		return nil, err
	}
	return dec.DecodeAll(b, nil)
}
