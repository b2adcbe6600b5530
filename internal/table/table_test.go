package table

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/editor"
	"github.com/starford/laguz/internal/schema"
)

const table3x3 = "<table>" +
	"<tr><td><p>a1</p></td><td><p>b1</p></td><td><p>c1</p></td></tr>" +
	"<tr><td><p>a2</p></td><td><p>b2</p></td><td><p>c2</p></td></tr>" +
	"<tr><td><p>a3</p></td><td><p>b3</p></td><td><p>c3</p></td></tr>" +
	"</table>"

func setup(t *testing.T, markup string) (*editor.Container, *Engine) {
	t.Helper()
	c := editor.NewContainer(schema.Default(), nil)
	if _, err := c.SetContent(markup); err != nil {
		t.Fatalf("SetContent: %v", err)
	}
	return c, NewEngine(c.Dispatcher())
}

// cell returns the cell at (row, col) of the first table in the document.
func cell(t *testing.T, c *editor.Container, row, col int) *document.Node {
	t.Helper()
	for _, tbl := range c.Dispatcher().Document().Root.Children {
		if tbl.Type == schema.Table {
			return tbl.Children[row].Children[col]
		}
	}
	t.Fatal("no table node in document")
	return nil
}

func TestResolveTargets_Modes(t *testing.T) {
	c, e := setup(t, table3x3)
	doc := c.Dispatcher().Document()
	anchor := cell(t, c, 1, 1).Children[0] // paragraph inside the center cell

	cases := []struct {
		mode Mode
		want int
	}{
		{ModeCell, 1},
		{ModeRow, 3},
		{ModeColumn, 3},
		{ModeTable, 9},
	}
	for _, tc := range cases {
		got, err := e.ResolveTargets(doc, anchor.ID, tc.mode)
		if err != nil {
			t.Fatalf("ResolveTargets(%s): %v", tc.mode, err)
		}
		if len(got) != tc.want {
			t.Errorf("%s targets = %d, want %d", tc.mode, len(got), tc.want)
		}
	}
}

func TestResolveTargets_ColumnMatchesIndex(t *testing.T) {
	c, e := setup(t, table3x3)
	doc := c.Dispatcher().Document()
	got, err := e.ResolveTargets(doc, cell(t, c, 0, 2).ID, ModeColumn)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{cell(t, c, 0, 2).ID, cell(t, c, 1, 2).ID, cell(t, c, 2, 2).ID}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column target %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestResolveTargets_RaggedColumnDegrades(t *testing.T) {
	ragged := "<table>" +
		"<tr><td><p>a1</p></td><td><p>b1</p></td></tr>" +
		"<tr><td><p>a2</p></td></tr>" +
		"<tr><td><p>a3</p></td><td><p>b3</p></td></tr>" +
		"</table>"
	c, e := setup(t, ragged)
	got, err := e.ResolveTargets(c.Dispatcher().Document(), cell(t, c, 0, 1).ID, ModeColumn)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("ragged column targets = %d, want 2 (short row skipped)", len(got))
	}
}

func TestResolveTargets_OutsideTable(t *testing.T) {
	c, e := setup(t, "<p>plain</p>"+table3x3)
	para := c.Dispatcher().Document().Root.Children[0]
	_, err := e.ResolveTargets(c.Dispatcher().Document(), para.ID, ModeRow)
	if !errors.Is(err, apperr.ErrNoEnclosingTable) {
		t.Errorf("error = %v, want ErrNoEnclosingTable", err)
	}
}

func TestApplyStyle_RowIsAtomicAndUndoable(t *testing.T) {
	c, e := setup(t, table3x3)

	emissions := 0
	c.OnContent(func(string) { emissions++ })

	anchor := cell(t, c, 1, 0)
	if err := e.ApplyStyle(anchor.ID, ModeRow, CellStyle{Background: "#ffcc00"}); err != nil {
		t.Fatalf("ApplyStyle: %v", err)
	}
	if emissions != 1 {
		t.Errorf("content emissions = %d, want 1 for the whole row", emissions)
	}
	for col := 0; col < 3; col++ {
		if got := cell(t, c, 1, col).Attrs.Get("background"); got != "#ffcc00" {
			t.Errorf("row cell %d background = %q, want #ffcc00", col, got)
		}
	}
	for col := 0; col < 3; col++ {
		if got := cell(t, c, 0, col).Attrs.Get("background"); got != "" {
			t.Errorf("untargeted cell %d background = %q, want unset", col, got)
		}
	}
	if n := strings.Count(c.Content(), `data-background-color="#ffcc00"`); n != 3 {
		t.Errorf("styled cells in markup = %d, want 3", n)
	}

	if !c.Dispatcher().Undo() {
		t.Fatal("Undo returned false")
	}
	if strings.Contains(c.Content(), "#ffcc00") {
		t.Error("style survived a single undo, row styling must be one history entry")
	}
}

func TestApplyStyle_PartialStyleKeepsExisting(t *testing.T) {
	c, e := setup(t, table3x3)
	anchor := cell(t, c, 0, 0)
	if err := e.ApplyStyle(anchor.ID, ModeCell, CellStyle{Background: "#eee", Padding: "4px"}); err != nil {
		t.Fatal(err)
	}
	if err := e.ApplyStyle(anchor.ID, ModeCell, CellStyle{TextColor: "#111"}); err != nil {
		t.Fatal(err)
	}
	got := cell(t, c, 0, 0).Attrs
	if got.Get("background") != "#eee" || got.Get("padding") != "4px" || got.Get("textColor") != "#111" {
		t.Errorf("attrs = %v, want earlier style preserved", got)
	}
}

func TestApplyPreset(t *testing.T) {
	c, e := setup(t, table3x3)
	if err := e.ApplyPreset(cell(t, c, 0, 0).ID, ModeTable, "Accent"); err != nil {
		t.Fatal(err)
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			if got := cell(t, c, row, col).Attrs.Get("background"); got != "#ffcc00" {
				t.Fatalf("cell %d,%d background = %q, want preset applied", row, col, got)
			}
		}
	}
	if err := e.ApplyPreset(cell(t, c, 0, 0).ID, ModeCell, "Nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown preset error = %v, want ErrNotFound", err)
	}
}

func TestCellAt_PositionAccounting(t *testing.T) {
	c, _ := setup(t, "<p>ab</p>"+table3x3)
	doc := c.Dispatcher().Document()

	// Leading paragraph spans positions 0..3 (open, a, b, close). The table
	// opens at 4 and its first cell at 6.
	if got := CellAt(doc, 2); got != nil {
		t.Errorf("CellAt inside paragraph = %v, want nil", got)
	}
	first := cell(t, c, 0, 0)
	if got := CellAt(doc, 7); got == nil || got.ID != first.ID {
		t.Errorf("CellAt(7) = %v, want first cell", got)
	}
	if got := CellAt(doc, 1_000_000); got != nil {
		t.Errorf("CellAt past end = %v, want nil", got)
	}
}
