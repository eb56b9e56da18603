// Package element walks single host nodes into stored elements and back.
package element

import (
	"context"
	"fmt"
	"math"

	"github.com/alchemmist/canvas-snap/internal/document"
	"github.com/alchemmist/canvas-snap/internal/snapshot"
	"github.com/alchemmist/canvas-snap/internal/style"
)

// Serialize never fails: unavailable values fall back to their defaults and
// unrecognized kinds become *snapshot.Generic.
func Serialize(n document.Node) snapshot.Element {
	c := common(n)
	switch n.Kind() {
	case document.KindRectangle:
		e := &snapshot.Rectangle{Common: c, Fill: fillOf(n), Stroke: strokeOf(n)}
		if r, ok := n.(document.CornerRounder); ok {
			e.CornerRadius = finite(r.CornerRadius())
		}
		return e
	case document.KindEllipse:
		return &snapshot.Ellipse{Common: c, Fill: fillOf(n), Stroke: strokeOf(n)}
	case document.KindText:
		e := &snapshot.Text{Common: c, FontSize: snapshot.DefaultFontSize, FontFamily: snapshot.DefaultFontFamily, Fill: fillOf(n)}
		if t, ok := n.(document.Texter); ok {
			e.Text = t.Text()
			if size := finite(t.FontSize()); size > 0 {
				e.FontSize = size
			}
			if family := t.FontFamily(); family != "" {
				e.FontFamily = family
			}
		}
		return e
	case document.KindLine:
		e := &snapshot.Line{Common: c, Stroke: strokeOf(n)}
		if l, ok := n.(document.Liner); ok {
			sx, sy, ex, ey := l.Endpoints()
			e.StartX, e.StartY, e.EndX, e.EndY = finite(sx), finite(sy), finite(ex), finite(ey)
		}
		return e
	default:
		return &snapshot.Generic{Common: c, HostType: string(n.Kind())}
	}
}

// SerializeBoard captures a board and its children in z-order. position is the
// board's 0-based index, used to name unnamed boards.
func SerializeBoard(ctx context.Context, b document.Board, position int) (snapshot.Board, error) {
	children, err := b.Children(ctx)
	if err != nil {
		return snapshot.Board{}, fmt.Errorf("list children of board %s: %w", b.ID(), err)
	}
	name := b.Name()
	if name == "" {
		name = fmt.Sprintf("Board %d", position+1)
	}
	out := snapshot.Board{
		ID:       b.ID(),
		Name:     name,
		Width:    finite(b.Width()),
		Height:   finite(b.Height()),
		Elements: make(snapshot.Elements, 0, len(children)),
	}
	for _, n := range children {
		if err := ctx.Err(); err != nil {
			return snapshot.Board{}, err
		}
		out.Elements = append(out.Elements, Serialize(n))
	}
	return out, nil
}

func common(n document.Node) snapshot.Common {
	r := n.Bounds()
	c := snapshot.Common{
		ID:       n.ID(),
		X:        finite(r.X),
		Y:        finite(r.Y),
		Width:    finite(r.Width),
		Height:   finite(r.Height),
		Rotation: finite(n.Rotation()),
		Opacity:  opacity(n.Opacity()),
	}
	if name := n.Name(); name != "" {
		c.Name = &name
	}
	return c
}

func fillOf(n document.Node) *snapshot.Fill {
	if f, ok := n.(document.Filler); ok {
		return style.EncodeFill(f.Fill())
	}
	return nil
}

func strokeOf(n document.Node) *snapshot.Stroke {
	if s, ok := n.(document.Stroker); ok {
		return style.EncodeStroke(s.Stroke())
	}
	return nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func opacity(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return snapshot.DefaultOpacity
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
