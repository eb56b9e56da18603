package snapshot

import "time"

const FormatVersion = 1

const (
	DefaultFontSize    = 12
	DefaultFontFamily  = "Arial"
	DefaultStrokeWidth = 1
	DefaultOpacity     = 1
)

// Snapshot is an immutable capture of every board of a document.
type Snapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"timestamp"`
	Title     string    `json:"title"`
	Thumbnail []byte    `json:"thumbnail,omitempty"`
	Boards    []Board   `json:"boards"`
}

type Board struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Elements Elements `json:"elements"`
}

// Summary is the lightweight listing form of a Snapshot.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"timestamp"`
	Boards    int       `json:"boards"`
	Elements  int       `json:"elements"`
}

func (s Snapshot) Summary() Summary {
	elements := 0
	for _, b := range s.Boards {
		elements += len(b.Elements)
	}
	return Summary{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		Boards:    len(s.Boards),
		Elements:  elements,
	}
}

// Clone returns a deep copy; stored snapshots are never handed out directly.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Thumbnail != nil {
		out.Thumbnail = append([]byte(nil), s.Thumbnail...)
	}
	out.Boards = make([]Board, len(s.Boards))
	for i, b := range s.Boards {
		out.Boards[i] = b.Clone()
	}
	return out
}

func (b Board) Clone() Board {
	out := b
	out.Elements = make(Elements, len(b.Elements))
	for i, e := range b.Elements {
		out.Elements[i] = e.clone()
	}
	return out
}

// RGBA channels are 0-255, alpha is 0-1.
type RGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

type Fill struct {
	Color *RGBA `json:"color"`
}

type Stroke struct {
	Color *RGBA   `json:"color"`
	Width float64 `json:"width"`
}

func (f *Fill) clone() *Fill {
	if f == nil {
		return nil
	}
	out := &Fill{}
	if f.Color != nil {
		c := *f.Color
		out.Color = &c
	}
	return out
}

func (s *Stroke) clone() *Stroke {
	if s == nil {
		return nil
	}
	out := &Stroke{Width: s.Width}
	if s.Color != nil {
		c := *s.Color
		out.Color = &c
	}
	return out
}
