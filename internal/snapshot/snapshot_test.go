package snapshot

import (
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Snapshot {
	red := &RGBA{R: 255, A: 1}
	return Snapshot{
		ID:        "s1",
		Name:      "v1",
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Title:     "Poster",
		Boards: []Board{{
			ID: "b1", Name: "Board 1", Width: 800, Height: 600,
			Elements: Elements{
				&Rectangle{Common: Common{Name: StringPtr("bg"), Width: 800, Height: 600, Opacity: 1}, Fill: &Fill{Color: red}, CornerRadius: 4},
				&Text{Common: Common{X: 10, Y: 20, Opacity: 0.5}, Text: "hello", FontSize: 18, FontFamily: "Inter"},
				&Line{Common: Common{Opacity: 1}, Stroke: &Stroke{Color: red, Width: 2}, EndX: 100, EndY: 50},
				&Generic{Common: Common{X: 5, Opacity: 1}, HostType: "ImageNode"},
			},
		}},
	}
}

func TestElementsJSONIsTaggedAndOrdered(t *testing.T) {
	b, err := json.Marshal(sample().Boards[0])
	require.NoError(t, err)

	var raw struct {
		Elements []map[string]any `json:"elements"`
	}
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Len(t, raw.Elements, 4)

	types := make([]string, 0, 4)
	for _, e := range raw.Elements {
		types = append(types, e["type"].(string))
	}
	assert.Equal(t, []string{"rectangle", "text", "line", "generic"}, types)
	assert.Equal(t, "ImageNode", raw.Elements[3]["hostType"])
	assert.Nil(t, raw.Elements[1]["name"])
}

func TestElementsUnmarshalAppliesDefaults(t *testing.T) {
	in := `[{"type":"text","x":1,"y":2},{"type":"line","stroke":{"color":null,"width":3}},{"type":"StarNode","x":7}]`

	var es Elements
	require.NoError(t, json.Unmarshal([]byte(in), &es))
	require.Len(t, es, 3)

	txt, ok := es[0].(*Text)
	require.True(t, ok)
	assert.Equal(t, "", txt.Text)
	assert.Equal(t, float64(DefaultFontSize), txt.FontSize)
	assert.Equal(t, DefaultFontFamily, txt.FontFamily)
	assert.Equal(t, float64(DefaultOpacity), txt.Opacity)

	line, ok := es[1].(*Line)
	require.True(t, ok)
	assert.Nil(t, line.Stroke.Color)
	assert.Equal(t, 3.0, line.Stroke.Width)

	gen, ok := es[2].(*Generic)
	require.True(t, ok)
	assert.Equal(t, "StarNode", gen.HostType)
	assert.Equal(t, 7.0, gen.X)
}

func TestCloneIsDeep(t *testing.T) {
	s := sample()
	c := s.Clone()

	c.Boards[0].Elements[0].(*Rectangle).Fill.Color.G = 99
	*c.Boards[0].Elements[0].Base().Name = "changed"
	c.Boards[0].Elements = append(c.Boards[0].Elements[:1], c.Boards[0].Elements[2:]...)

	orig := s.Boards[0].Elements[0].(*Rectangle)
	assert.Equal(t, 0.0, orig.Fill.Color.G)
	assert.Equal(t, "bg", *orig.Name)
	assert.Len(t, s.Boards[0].Elements, 4)
}

func TestSummaryCountsElements(t *testing.T) {
	sum := sample().Summary()
	assert.Equal(t, Summary{ID: "s1", Name: "v1", CreatedAt: sample().CreatedAt, Boards: 1, Elements: 4}, sum)
}

func TestExportRoundTripCompressed(t *testing.T) {
	exp := NewExport(sample(), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	plain, err := MarshalExport(exp)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(plain), `"type": "snapshot-export"`))

	packed, err := Compress(plain)
	require.NoError(t, err)
	assert.True(t, IsCompressed(packed))

	got, err := UnmarshalExport(packed)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Name)
	assert.Equal(t, "Poster", got.Title)
	require.Len(t, got.Boards, 1)
	assert.Len(t, got.Boards[0].Elements, 4)
	assert.Equal(t, 4.0, got.Boards[0].Elements[0].(*Rectangle).CornerRadius)
}

func TestUnmarshalExportRejectsOtherDocuments(t *testing.T) {
	_, err := UnmarshalExport([]byte(`{"type":"snapshot","name":"x"}`))
	assert.ErrorIs(t, err, ErrNotExport)
}

func TestExportFileName(t *testing.T) {
	now := time.UnixMilli(1767225600000)
	assert.Equal(t, "snapshot_my_draft__v2__1767225600000.json", ExportFileName("My Draft (v2)", now, false))
	assert.Equal(t, "snapshot_a_1767225600000.json.zst", ExportFileName("a", now, true))
	assert.Equal(t, "snapshot_launch____1767225600000.json", ExportFileName("Launch 🚀", now, false))
	assert.Equal(t, "snapshot_caf__1767225600000.json", ExportFileName("Café", now, false))
}
