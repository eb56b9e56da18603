package element

import (
	"context"
	"errors"
	"fmt"

	"github.com/alchemmist/canvas-snap/internal/document"
	"github.com/alchemmist/canvas-snap/internal/snapshot"
	"github.com/alchemmist/canvas-snap/internal/style"
)

// ReconstructionError reports a host failure while rebuilding one element.
type ReconstructionError struct {
	Kind snapshot.Kind
	ID   string
	Err  error
}

func (e *ReconstructionError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("rebuild %s element %s: %v", e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("rebuild %s element: %v", e.Kind, e.Err)
}

func (e *ReconstructionError) Unwrap() error { return e.Err }

var errCapability = errors.New("host node lacks capability")

// Deserialize creates a detached host node from e. A Generic element yields
// (nil, nil): there is nothing the host can create for it. The caller appends
// the returned node to its board.
func Deserialize(ctx context.Context, doc document.Document, e snapshot.Element) (document.Node, error) {
	b := &builder{ctx: ctx, doc: doc}
	if err := e.Visit(b); err != nil {
		return nil, &ReconstructionError{Kind: e.Kind(), ID: e.Base().ID, Err: err}
	}
	return b.node, nil
}

type builder struct {
	ctx  context.Context
	doc  document.Document
	node document.Node
}

func (b *builder) VisitRectangle(e *snapshot.Rectangle) error {
	if err := b.create(document.KindRectangle); err != nil {
		return err
	}
	if err := b.paint(e.Fill, e.Stroke); err != nil {
		return err
	}
	if e.CornerRadius != 0 {
		r, ok := b.node.(document.CornerRounder)
		if !ok {
			return fmt.Errorf("%w: corner radius", errCapability)
		}
		if err := r.SetCornerRadius(e.CornerRadius); err != nil {
			return err
		}
	}
	return b.common(&e.Common, true)
}

func (b *builder) VisitEllipse(e *snapshot.Ellipse) error {
	if err := b.create(document.KindEllipse); err != nil {
		return err
	}
	if err := b.paint(e.Fill, e.Stroke); err != nil {
		return err
	}
	return b.common(&e.Common, true)
}

func (b *builder) VisitText(e *snapshot.Text) error {
	if err := b.create(document.KindText); err != nil {
		return err
	}
	t, ok := b.node.(document.Texter)
	if !ok {
		return fmt.Errorf("%w: text", errCapability)
	}
	if err := t.SetText(e.Text); err != nil {
		return err
	}
	if e.FontSize > 0 {
		if err := t.SetFontSize(e.FontSize); err != nil {
			return err
		}
	}
	if e.FontFamily != "" {
		if err := t.SetFontFamily(e.FontFamily); err != nil {
			return err
		}
	}
	if err := b.paint(e.Fill, nil); err != nil {
		return err
	}
	return b.common(&e.Common, true)
}

func (b *builder) VisitLine(e *snapshot.Line) error {
	if err := b.create(document.KindLine); err != nil {
		return err
	}
	if err := b.paint(nil, e.Stroke); err != nil {
		return err
	}
	l, ok := b.node.(document.Liner)
	if !ok {
		return fmt.Errorf("%w: endpoints", errCapability)
	}
	if err := l.SetEndpoints(e.StartX, e.StartY, e.EndX, e.EndY); err != nil {
		return err
	}
	return b.common(&e.Common, false)
}

func (b *builder) VisitGeneric(*snapshot.Generic) error {
	return nil
}

func (b *builder) create(kind document.Kind) error {
	n, err := b.doc.CreateNode(b.ctx, kind)
	if err != nil {
		return err
	}
	b.node = n
	return nil
}

// paint applies fill and stroke. Colors the codec cannot decode are left unset.
func (b *builder) paint(fill *snapshot.Fill, stroke *snapshot.Stroke) error {
	if f := style.DecodeFill(fill); f != nil {
		filler, ok := b.node.(document.Filler)
		if !ok {
			return fmt.Errorf("%w: fill", errCapability)
		}
		if err := filler.SetFill(f); err != nil {
			return err
		}
	}
	if s := style.DecodeStroke(stroke); s != nil {
		stroker, ok := b.node.(document.Stroker)
		if !ok {
			return fmt.Errorf("%w: stroke", errCapability)
		}
		if err := stroker.SetStroke(s); err != nil {
			return err
		}
	}
	return nil
}

// common applies name, size, position, rotation and opacity in that order;
// some hosts only accept positioning once the node has its final size.
func (b *builder) common(c *snapshot.Common, sized bool) error {
	n := b.node
	if c.Name != nil {
		if err := n.SetName(*c.Name); err != nil {
			return err
		}
	}
	if r, ok := n.(document.Resizer); ok && sized && c.Width > 0 && c.Height > 0 {
		if err := r.Resize(c.Width, c.Height); err != nil {
			return err
		}
	}
	if err := n.MoveInParent(c.X, c.Y); err != nil {
		return err
	}
	if c.Rotation != 0 {
		if err := n.SetRotation(c.Rotation); err != nil {
			return err
		}
	}
	return n.SetOpacity(c.Opacity)
}
