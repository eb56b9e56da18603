package snapshot

// Kind tags an element variant in the stored form.
type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindEllipse   Kind = "ellipse"
	KindText      Kind = "text"
	KindLine      Kind = "line"
	KindGeneric   Kind = "generic"
)

// Element is one of *Rectangle, *Ellipse, *Text, *Line or *Generic. The set is
// closed: only this package can add variants.
type Element interface {
	Kind() Kind
	Base() *Common
	// Visit calls the visitor method matching the variant.
	Visit(v Visitor) error
	clone() Element
}

// Visitor has one method per variant, so adding a variant breaks every visitor
// at compile time.
type Visitor interface {
	VisitRectangle(e *Rectangle) error
	VisitEllipse(e *Ellipse) error
	VisitText(e *Text) error
	VisitLine(e *Line) error
	VisitGeneric(e *Generic) error
}

// Common fields are shared by every variant. Coordinates are relative to the
// parent board; Rotation is in degrees.
type Common struct {
	ID       string
	Name     *string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Rotation float64
	Opacity  float64
}

func (c *Common) Base() *Common { return c }

func (c Common) cloneCommon() Common {
	out := c
	if c.Name != nil {
		n := *c.Name
		out.Name = &n
	}
	return out
}

type Rectangle struct {
	Common
	Fill         *Fill
	Stroke       *Stroke
	CornerRadius float64
}

type Ellipse struct {
	Common
	Fill   *Fill
	Stroke *Stroke
}

type Text struct {
	Common
	Text       string
	FontSize   float64
	FontFamily string
	Fill       *Fill
}

type Line struct {
	Common
	Stroke *Stroke
	StartX float64
	StartY float64
	EndX   float64
	EndY   float64
}

// Generic keeps the slot of an element whose host type was not recognized.
type Generic struct {
	Common
	HostType string
}

func (*Rectangle) Kind() Kind { return KindRectangle }
func (*Ellipse) Kind() Kind   { return KindEllipse }
func (*Text) Kind() Kind      { return KindText }
func (*Line) Kind() Kind      { return KindLine }
func (*Generic) Kind() Kind   { return KindGeneric }

func (e *Rectangle) Visit(v Visitor) error { return v.VisitRectangle(e) }
func (e *Ellipse) Visit(v Visitor) error   { return v.VisitEllipse(e) }
func (e *Text) Visit(v Visitor) error      { return v.VisitText(e) }
func (e *Line) Visit(v Visitor) error      { return v.VisitLine(e) }
func (e *Generic) Visit(v Visitor) error   { return v.VisitGeneric(e) }

func (e *Rectangle) clone() Element {
	return &Rectangle{Common: e.cloneCommon(), Fill: e.Fill.clone(), Stroke: e.Stroke.clone(), CornerRadius: e.CornerRadius}
}

func (e *Ellipse) clone() Element {
	return &Ellipse{Common: e.cloneCommon(), Fill: e.Fill.clone(), Stroke: e.Stroke.clone()}
}

func (e *Text) clone() Element {
	return &Text{Common: e.cloneCommon(), Text: e.Text, FontSize: e.FontSize, FontFamily: e.FontFamily, Fill: e.Fill.clone()}
}

func (e *Line) clone() Element {
	out := *e
	out.Common = e.cloneCommon()
	out.Stroke = e.Stroke.clone()
	return &out
}

func (e *Generic) clone() Element {
	return &Generic{Common: e.cloneCommon(), HostType: e.HostType}
}

// StringPtr is a helper for optional names.
func StringPtr(s string) *string { return &s }
