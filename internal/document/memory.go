package document

import (
	"context"
	"fmt"
	"math"
	"sync"
)

const untitled = "Untitled Document"

// Memory is an in-process host document. It is safe for concurrent use; every
// board and node shares the document lock.
type Memory struct {
	mu        sync.RWMutex
	title     string
	boards    []*MemBoard
	thumbnail []byte
	seq       int
}

func NewMemory(title string) *Memory {
	return &Memory{title: title}
}

func (m *Memory) Title() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.title == "" {
		return untitled
	}
	return m.title
}

func (m *Memory) SetTitle(title string) {
	m.mu.Lock()
	m.title = title
	m.mu.Unlock()
}

func (m *Memory) SetThumbnail(b []byte) {
	m.mu.Lock()
	m.thumbnail = append([]byte(nil), b...)
	m.mu.Unlock()
}

func (m *Memory) Thumbnail(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.thumbnail) == 0 {
		return nil, nil
	}
	return append([]byte(nil), m.thumbnail...), nil
}

func (m *Memory) Boards(ctx context.Context) ([]Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Board, 0, len(m.boards))
	for _, b := range m.boards {
		out = append(out, b)
	}
	return out, nil
}

func (m *Memory) CreateBoard(ctx context.Context, name string, width, height float64) (Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &MemBoard{doc: m, id: m.nextID("b"), name: name, width: width, height: height}
	m.boards = append(m.boards, b)
	return b, nil
}

func (m *Memory) ClearBoards(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.boards = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) CreateNode(ctx context.Context, kind Kind) (Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch kind {
	case KindRectangle, KindEllipse, KindText, KindLine:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newNode(kind), nil
}

// InsertForeign appends a node of a kind the factory cannot create, such as an
// image or a group placed by another tool.
func (m *Memory) InsertForeign(b *MemBoard, kind Kind, bounds Rect) *MemNode {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.newNode(kind)
	n.bounds = bounds
	n.attached = true
	b.children = append(b.children, n)
	return n
}

func (m *Memory) newNode(kind Kind) *MemNode {
	n := &MemNode{doc: m, id: m.nextID("n"), kind: kind, opacity: 1}
	if kind == KindText {
		n.fontSize = 12
		n.fontFamily = "Arial"
	}
	return n
}

func (m *Memory) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

type MemBoard struct {
	doc      *Memory
	id       string
	name     string
	width    float64
	height   float64
	children []*MemNode
}

func (b *MemBoard) ID() string { return b.id }

func (b *MemBoard) Name() string {
	b.doc.mu.RLock()
	defer b.doc.mu.RUnlock()
	return b.name
}

func (b *MemBoard) Width() float64 {
	b.doc.mu.RLock()
	defer b.doc.mu.RUnlock()
	return b.width
}

func (b *MemBoard) Height() float64 {
	b.doc.mu.RLock()
	defer b.doc.mu.RUnlock()
	return b.height
}

func (b *MemBoard) Children(ctx context.Context) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.doc.mu.RLock()
	defer b.doc.mu.RUnlock()
	out := make([]Node, 0, len(b.children))
	for _, n := range b.children {
		out = append(out, n)
	}
	return out, nil
}

func (b *MemBoard) Append(ctx context.Context, n Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mn, ok := n.(*MemNode)
	if !ok || mn.doc != b.doc {
		return fmt.Errorf("node %s does not belong to this document", n.ID())
	}
	b.doc.mu.Lock()
	defer b.doc.mu.Unlock()
	if mn.attached {
		return fmt.Errorf("node %s is already attached", mn.id)
	}
	mn.attached = true
	b.children = append(b.children, mn)
	return nil
}

// MemNode is a drawable in a Memory document. Kind-specific setters reject nodes
// of other kinds.
type MemNode struct {
	doc      *Memory
	id       string
	kind     Kind
	attached bool

	name     string
	bounds   Rect
	rotation float64
	opacity  float64

	fill         *ColorFill
	stroke       *Stroke
	cornerRadius float64

	text       string
	fontSize   float64
	fontFamily string

	startX, startY, endX, endY float64
}

func (n *MemNode) ID() string { return n.id }
func (n *MemNode) Kind() Kind { return n.kind }

func (n *MemNode) Name() string {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.name
}

func (n *MemNode) SetName(name string) error {
	return n.set(func() { n.name = name })
}

func (n *MemNode) Bounds() Rect {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	if n.kind == KindLine {
		return Rect{
			X:      n.bounds.X,
			Y:      n.bounds.Y,
			Width:  math.Abs(n.endX - n.startX),
			Height: math.Abs(n.endY - n.startY),
		}
	}
	return n.bounds
}

func (n *MemNode) Rotation() float64 {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.rotation
}

func (n *MemNode) SetRotation(deg float64) error {
	return n.set(func() { n.rotation = deg })
}

func (n *MemNode) Opacity() float64 {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.opacity
}

func (n *MemNode) SetOpacity(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("opacity %v out of range [0,1]", v)
	}
	return n.set(func() { n.opacity = v })
}

func (n *MemNode) MoveInParent(x, y float64) error {
	return n.set(func() {
		n.bounds.X = x
		n.bounds.Y = y
	})
}

func (n *MemNode) Resize(width, height float64) error {
	if err := n.require(KindRectangle, KindEllipse, KindText); err != nil {
		return err
	}
	if width < 0 || height < 0 {
		return fmt.Errorf("negative size %vx%v", width, height)
	}
	return n.set(func() {
		n.bounds.Width = width
		n.bounds.Height = height
	})
}

func (n *MemNode) Fill() *ColorFill {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	if n.fill == nil {
		return nil
	}
	f := *n.fill
	return &f
}

func (n *MemNode) SetFill(f *ColorFill) error {
	if err := n.require(KindRectangle, KindEllipse, KindText); err != nil {
		return err
	}
	return n.set(func() {
		if f == nil {
			n.fill = nil
			return
		}
		cp := *f
		n.fill = &cp
	})
}

func (n *MemNode) Stroke() *Stroke {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	if n.stroke == nil {
		return nil
	}
	s := *n.stroke
	return &s
}

func (n *MemNode) SetStroke(s *Stroke) error {
	if err := n.require(KindRectangle, KindEllipse, KindLine); err != nil {
		return err
	}
	return n.set(func() {
		if s == nil {
			n.stroke = nil
			return
		}
		cp := *s
		n.stroke = &cp
	})
}

func (n *MemNode) CornerRadius() float64 {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.cornerRadius
}

func (n *MemNode) SetCornerRadius(r float64) error {
	if err := n.require(KindRectangle); err != nil {
		return err
	}
	return n.set(func() { n.cornerRadius = r })
}

func (n *MemNode) Text() string {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.text
}

func (n *MemNode) SetText(s string) error {
	if err := n.require(KindText); err != nil {
		return err
	}
	return n.set(func() { n.text = s })
}

func (n *MemNode) FontSize() float64 {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.fontSize
}

func (n *MemNode) SetFontSize(size float64) error {
	if err := n.require(KindText); err != nil {
		return err
	}
	if size <= 0 {
		return fmt.Errorf("font size must be positive, got %v", size)
	}
	return n.set(func() { n.fontSize = size })
}

func (n *MemNode) FontFamily() string {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.fontFamily
}

func (n *MemNode) SetFontFamily(family string) error {
	if err := n.require(KindText); err != nil {
		return err
	}
	return n.set(func() { n.fontFamily = family })
}

func (n *MemNode) Endpoints() (float64, float64, float64, float64) {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.startX, n.startY, n.endX, n.endY
}

func (n *MemNode) SetEndpoints(startX, startY, endX, endY float64) error {
	if err := n.require(KindLine); err != nil {
		return err
	}
	return n.set(func() {
		n.startX, n.startY, n.endX, n.endY = startX, startY, endX, endY
	})
}

func (n *MemNode) require(kinds ...Kind) error {
	for _, k := range kinds {
		if n.kind == k {
			return nil
		}
	}
	return fmt.Errorf("%s does not support this property", n.kind)
}

func (n *MemNode) set(fn func()) error {
	n.doc.mu.Lock()
	fn()
	n.doc.mu.Unlock()
	return nil
}
