// Package document describes the narrow slice of a host drawing document that the
// snapshot engine reads and rebuilds, plus Memory, an in-process host.
package document

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the host runtime type tag of a node.
type Kind string

const (
	KindRectangle Kind = "RectangleNode"
	KindEllipse   Kind = "EllipseNode"
	KindText      Kind = "TextNode"
	KindLine      Kind = "LineNode"
)

var ErrUnsupportedKind = errors.New("unsupported node kind")

// Document is a live, mutable tree of boards.
type Document interface {
	Title() string
	Boards(ctx context.Context) ([]Board, error)
	// CreateBoard creates an empty board and appends it to the document.
	CreateBoard(ctx context.Context, name string, width, height float64) (Board, error)
	// ClearBoards destructively removes every board.
	ClearBoards(ctx context.Context) error
	// CreateNode creates a blank detached node of the given kind.
	CreateNode(ctx context.Context, kind Kind) (Node, error)
}

// Thumbnailer is implemented by documents that can render a preview image.
type Thumbnailer interface {
	Thumbnail(ctx context.Context) ([]byte, error)
}

type Board interface {
	ID() string
	Name() string
	Width() float64
	Height() float64
	// Children returns the board's nodes back to front.
	Children(ctx context.Context) ([]Node, error)
	Append(ctx context.Context, n Node) error
}

type Rect struct {
	X, Y, Width, Height float64
}

type Node interface {
	ID() string
	Kind() Kind
	Name() string
	SetName(name string) error
	// Bounds reports the node geometry relative to its parent board.
	Bounds() Rect
	Rotation() float64
	SetRotation(deg float64) error
	Opacity() float64
	SetOpacity(v float64) error
	MoveInParent(x, y float64) error
}

type Filler interface {
	Fill() *ColorFill
	SetFill(f *ColorFill) error
}

type Stroker interface {
	Stroke() *Stroke
	SetStroke(s *Stroke) error
}

type CornerRounder interface {
	CornerRadius() float64
	SetCornerRadius(r float64) error
}

type Texter interface {
	Text() string
	SetText(s string) error
	FontSize() float64
	SetFontSize(size float64) error
	FontFamily() string
	SetFontFamily(family string) error
}

type Liner interface {
	Endpoints() (startX, startY, endX, endY float64)
	SetEndpoints(startX, startY, endX, endY float64) error
}

type Resizer interface {
	Resize(width, height float64) error
}

// Color is a host color: channels 0-255, alpha 0-1.
type Color struct {
	R, G, B float64
	A       float64
}

// MakeColor validates channel ranges the way a host color factory does.
func MakeColor(r, g, b, a float64) (Color, error) {
	for _, ch := range []float64{r, g, b} {
		if ch < 0 || ch > 255 || ch != ch {
			return Color{}, fmt.Errorf("color channel %v out of range [0,255]", ch)
		}
	}
	if a < 0 || a > 1 || a != a {
		return Color{}, fmt.Errorf("alpha %v out of range [0,1]", a)
	}
	return Color{R: r, G: g, B: b, A: a}, nil
}

type ColorFill struct {
	Color Color
}

type Stroke struct {
	Color Color
	Width float64
}
