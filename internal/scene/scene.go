// Package scene reads and writes documents as YAML or JSON scene files so the
// CLI has a live document to snapshot between runs.
package scene

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/alchemmist/canvas-snap/internal/document"
	"github.com/alchemmist/canvas-snap/internal/style"
)

const defaultFilePerm = 0o644

var ErrUnknownFormat = errors.New("unknown scene file format")

type File struct {
	Title  string  `yaml:"title,omitempty" json:"title,omitempty"`
	Boards []Board `yaml:"boards" json:"boards"`
}

type Board struct {
	Name   string  `yaml:"name" json:"name"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
	Nodes  []Node  `yaml:"nodes,omitempty" json:"nodes,omitempty"`
}

// Node is one drawable. Type is rectangle, ellipse, text or line; any other
// value is kept as a foreign host kind such as ImageNode. Colors are #rrggbb.
type Node struct {
	Type     string   `yaml:"type" json:"type"`
	Name     string   `yaml:"name,omitempty" json:"name,omitempty"`
	X        float64  `yaml:"x" json:"x"`
	Y        float64  `yaml:"y" json:"y"`
	Width    float64  `yaml:"width,omitempty" json:"width,omitempty"`
	Height   float64  `yaml:"height,omitempty" json:"height,omitempty"`
	Rotation float64  `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	Opacity  *float64 `yaml:"opacity,omitempty" json:"opacity,omitempty"`

	Fill        string   `yaml:"fill,omitempty" json:"fill,omitempty"`
	FillAlpha   *float64 `yaml:"fillAlpha,omitempty" json:"fillAlpha,omitempty"`
	Stroke      string   `yaml:"stroke,omitempty" json:"stroke,omitempty"`
	StrokeAlpha *float64 `yaml:"strokeAlpha,omitempty" json:"strokeAlpha,omitempty"`
	StrokeWidth float64  `yaml:"strokeWidth,omitempty" json:"strokeWidth,omitempty"`
	Radius      float64  `yaml:"radius,omitempty" json:"radius,omitempty"`

	Text       string  `yaml:"text,omitempty" json:"text,omitempty"`
	FontSize   float64 `yaml:"fontSize,omitempty" json:"fontSize,omitempty"`
	FontFamily string  `yaml:"fontFamily,omitempty" json:"fontFamily,omitempty"`

	X1 float64 `yaml:"x1,omitempty" json:"x1,omitempty"`
	Y1 float64 `yaml:"y1,omitempty" json:"y1,omitempty"`
	X2 float64 `yaml:"x2,omitempty" json:"x2,omitempty"`
	Y2 float64 `yaml:"y2,omitempty" json:"y2,omitempty"`
}

var typeKinds = map[string]document.Kind{
	"rectangle": document.KindRectangle,
	"ellipse":   document.KindEllipse,
	"text":      document.KindText,
	"line":      document.KindLine,
}

func kindOf(t string) document.Kind {
	if k, ok := typeKinds[strings.ToLower(t)]; ok {
		return k
	}
	return document.Kind(t)
}

func typeOf(k document.Kind) string {
	for t, kind := range typeKinds {
		if kind == k {
			return t
		}
	}
	return string(k)
}

// Load opens the scene at path as a Memory document.
func Load(ctx context.Context, path string) (*document.Memory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(path, b)
	if err != nil {
		return nil, err
	}
	return Build(ctx, f)
}

// Save writes doc to path in the format its extension names, replacing the
// file atomically.
func Save(ctx context.Context, path string, doc document.Document) error {
	f, err := Dump(ctx, doc)
	if err != nil {
		return err
	}
	b, err := Encode(path, f)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, defaultFilePerm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func isJSON(path string) (bool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return true, nil
	case ".yaml", ".yml":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func Decode(path string, b []byte) (File, error) {
	asJSON, err := isJSON(path)
	if err != nil {
		return File{}, err
	}
	var f File
	if asJSON {
		err = json.Unmarshal(b, &f)
	} else {
		err = yaml.Unmarshal(b, &f)
	}
	if err != nil {
		return File{}, fmt.Errorf("decode scene %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

func Encode(path string, f File) ([]byte, error) {
	asJSON, err := isJSON(path)
	if err != nil {
		return nil, err
	}
	if asJSON {
		b, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	}
	return yaml.Marshal(f)
}

// Build creates a Memory document holding the boards and nodes of f, in order.
func Build(ctx context.Context, f File) (*document.Memory, error) {
	doc := document.NewMemory(f.Title)
	for _, sb := range f.Boards {
		b, err := doc.CreateBoard(ctx, sb.Name, sb.Width, sb.Height)
		if err != nil {
			return nil, err
		}
		for i, sn := range sb.Nodes {
			if err := addNode(ctx, doc, b.(*document.MemBoard), sn); err != nil {
				return nil, fmt.Errorf("board %q node %d: %w", sb.Name, i, err)
			}
		}
	}
	return doc, nil
}

func addNode(ctx context.Context, doc *document.Memory, b *document.MemBoard, sn Node) error {
	if sn.Type == "" {
		return errors.New("node type is required")
	}
	kind := kindOf(sn.Type)
	if typeOf(kind) == string(kind) {
		n := doc.InsertForeign(b, kind, document.Rect{X: sn.X, Y: sn.Y, Width: sn.Width, Height: sn.Height})
		return apply(n, sn)
	}

	node, err := doc.CreateNode(ctx, kind)
	if err != nil {
		return err
	}
	n := node.(*document.MemNode)
	if err := apply(n, sn); err != nil {
		return err
	}
	return b.Append(ctx, n)
}

func apply(n *document.MemNode, sn Node) error {
	kind := n.Kind()
	if err := n.SetName(sn.Name); err != nil {
		return err
	}
	if err := n.MoveInParent(sn.X, sn.Y); err != nil {
		return err
	}
	if sn.Rotation != 0 {
		if err := n.SetRotation(sn.Rotation); err != nil {
			return err
		}
	}
	if sn.Opacity != nil {
		if err := n.SetOpacity(*sn.Opacity); err != nil {
			return err
		}
	}

	switch kind {
	case document.KindRectangle, document.KindEllipse, document.KindText:
		if err := n.Resize(sn.Width, sn.Height); err != nil {
			return err
		}
		if sn.Fill != "" {
			c := color(sn.Fill, sn.FillAlpha)
			if err := n.SetFill(&document.ColorFill{Color: c}); err != nil {
				return err
			}
		}
	}
	switch kind {
	case document.KindRectangle, document.KindEllipse, document.KindLine:
		if sn.Stroke != "" {
			s := &document.Stroke{Color: color(sn.Stroke, sn.StrokeAlpha), Width: sn.StrokeWidth}
			if s.Width <= 0 {
				s.Width = 1
			}
			if err := n.SetStroke(s); err != nil {
				return err
			}
		}
	}

	switch kind {
	case document.KindRectangle:
		return n.SetCornerRadius(sn.Radius)
	case document.KindText:
		if err := n.SetText(sn.Text); err != nil {
			return err
		}
		if sn.FontSize > 0 {
			if err := n.SetFontSize(sn.FontSize); err != nil {
				return err
			}
		}
		if sn.FontFamily != "" {
			return n.SetFontFamily(sn.FontFamily)
		}
	case document.KindLine:
		return n.SetEndpoints(sn.X1, sn.Y1, sn.X2, sn.Y2)
	}
	return nil
}

// color decodes hex leniently; malformed values become black.
func color(hex string, alpha *float64) document.Color {
	rgb := style.HexToRGB(hex)
	a := 1.0
	if alpha != nil && *alpha >= 0 && *alpha <= 1 {
		a = *alpha
	}
	return document.Color{R: float64(rgb.R), G: float64(rgb.G), B: float64(rgb.B), A: a}
}

// Dump reads any document into scene form through the capability interfaces.
func Dump(ctx context.Context, doc document.Document) (File, error) {
	boards, err := doc.Boards(ctx)
	if err != nil {
		return File{}, err
	}
	f := File{Title: doc.Title(), Boards: make([]Board, 0, len(boards))}
	for _, b := range boards {
		children, err := b.Children(ctx)
		if err != nil {
			return File{}, err
		}
		sb := Board{Name: b.Name(), Width: b.Width(), Height: b.Height()}
		for _, n := range children {
			sb.Nodes = append(sb.Nodes, dumpNode(n))
		}
		f.Boards = append(f.Boards, sb)
	}
	return f, nil
}

func dumpNode(n document.Node) Node {
	r := n.Bounds()
	sn := Node{
		Type:     typeOf(n.Kind()),
		Name:     n.Name(),
		X:        r.X,
		Y:        r.Y,
		Width:    r.Width,
		Height:   r.Height,
		Rotation: n.Rotation(),
	}
	if op := n.Opacity(); op != 1 {
		sn.Opacity = &op
	}
	if n.Kind() == document.KindLine {
		sn.Width, sn.Height = 0, 0
	}
	if f, ok := n.(document.Filler); ok {
		if fill := f.Fill(); fill != nil {
			sn.Fill, sn.FillAlpha = hexAlpha(fill.Color)
		}
	}
	if s, ok := n.(document.Stroker); ok {
		if st := s.Stroke(); st != nil {
			sn.Stroke, sn.StrokeAlpha = hexAlpha(st.Color)
			sn.StrokeWidth = st.Width
		}
	}
	if c, ok := n.(document.CornerRounder); ok && n.Kind() == document.KindRectangle {
		sn.Radius = c.CornerRadius()
	}
	if t, ok := n.(document.Texter); ok && n.Kind() == document.KindText {
		sn.Text, sn.FontSize, sn.FontFamily = t.Text(), t.FontSize(), t.FontFamily()
	}
	if l, ok := n.(document.Liner); ok && n.Kind() == document.KindLine {
		sn.X1, sn.Y1, sn.X2, sn.Y2 = l.Endpoints()
	}
	return sn
}

func hexAlpha(c document.Color) (string, *float64) {
	hex := style.FromColor(c).Hex()
	if c.A == 1 {
		return hex, nil
	}
	a := c.A
	return hex, &a
}
