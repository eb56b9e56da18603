package snapshot

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Elements marshals each element as a flat object tagged by "type".
type Elements []Element

type record struct {
	Type     Kind     `json:"type"`
	HostType string   `json:"hostType,omitempty"`
	ID       string   `json:"id,omitempty"`
	Name     *string  `json:"name"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Rotation float64  `json:"rotation"`
	Opacity  *float64 `json:"opacity,omitempty"`

	Fill         *Fill    `json:"fill,omitempty"`
	Stroke       *Stroke  `json:"stroke,omitempty"`
	CornerRadius *float64 `json:"cornerRadius,omitempty"`

	Text       *string  `json:"text,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`

	StartX *float64 `json:"startX,omitempty"`
	StartY *float64 `json:"startY,omitempty"`
	EndX   *float64 `json:"endX,omitempty"`
	EndY   *float64 `json:"endY,omitempty"`
}

func (es Elements) MarshalJSON() ([]byte, error) {
	recs := make([]record, 0, len(es))
	for i, e := range es {
		if e == nil {
			return nil, fmt.Errorf("element %d is nil", i)
		}
		recs = append(recs, toRecord(e))
	}
	return json.Marshal(recs)
}

func (es *Elements) UnmarshalJSON(b []byte) error {
	var recs []record
	if err := json.Unmarshal(b, &recs); err != nil {
		return err
	}
	out := make(Elements, 0, len(recs))
	for _, r := range recs {
		out = append(out, fromRecord(r))
	}
	*es = out
	return nil
}

func toRecord(e Element) record {
	c := e.Base()
	r := record{
		Type:     e.Kind(),
		ID:       c.ID,
		Name:     c.Name,
		X:        c.X,
		Y:        c.Y,
		Width:    c.Width,
		Height:   c.Height,
		Rotation: c.Rotation,
		Opacity:  f64(c.Opacity),
	}
	switch v := e.(type) {
	case *Rectangle:
		r.Fill = v.Fill
		r.Stroke = v.Stroke
		r.CornerRadius = f64(v.CornerRadius)
	case *Ellipse:
		r.Fill = v.Fill
		r.Stroke = v.Stroke
	case *Text:
		r.Text = &v.Text
		r.FontSize = f64(v.FontSize)
		r.FontFamily = &v.FontFamily
		r.Fill = v.Fill
	case *Line:
		r.Stroke = v.Stroke
		r.StartX = f64(v.StartX)
		r.StartY = f64(v.StartY)
		r.EndX = f64(v.EndX)
		r.EndY = f64(v.EndY)
	case *Generic:
		r.HostType = v.HostType
	}
	return r
}

// fromRecord applies the documented defaults for absent fields. Unknown type
// tags keep their slot as Generic.
func fromRecord(r record) Element {
	c := Common{
		ID:       r.ID,
		Name:     r.Name,
		X:        r.X,
		Y:        r.Y,
		Width:    r.Width,
		Height:   r.Height,
		Rotation: r.Rotation,
		Opacity:  or(r.Opacity, DefaultOpacity),
	}
	switch r.Type {
	case KindRectangle:
		return &Rectangle{Common: c, Fill: r.Fill, Stroke: r.Stroke, CornerRadius: or(r.CornerRadius, 0)}
	case KindEllipse:
		return &Ellipse{Common: c, Fill: r.Fill, Stroke: r.Stroke}
	case KindText:
		t := &Text{Common: c, FontSize: or(r.FontSize, DefaultFontSize), FontFamily: DefaultFontFamily, Fill: r.Fill}
		if r.Text != nil {
			t.Text = *r.Text
		}
		if r.FontFamily != nil && *r.FontFamily != "" {
			t.FontFamily = *r.FontFamily
		}
		return t
	case KindLine:
		return &Line{
			Common: c,
			Stroke: r.Stroke,
			StartX: or(r.StartX, 0),
			StartY: or(r.StartY, 0),
			EndX:   or(r.EndX, 0),
			EndY:   or(r.EndY, 0),
		}
	case KindGeneric:
		return &Generic{Common: c, HostType: r.HostType}
	default:
		return &Generic{Common: c, HostType: string(r.Type)}
	}
}

func f64(v float64) *float64 { return &v }

func or(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
