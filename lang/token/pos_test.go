package token

import "testing"

func TestMakePosLineCol(t *testing.T) {
	cases := []struct {
		line, col int
	}{
		{1, 1},
		{10, 20},
		{MaxLines, MaxCols},
	}
	for _, c := range cases {
		p := MakePos(c.line, c.col)
		gotLine, gotCol := p.LineCol()
		if gotLine != c.line || gotCol != c.col {
			t.Errorf("MakePos(%d,%d).LineCol() = (%d,%d), want (%d,%d)",
				c.line, c.col, gotLine, gotCol, c.line, c.col)
		}
	}
}

func TestPosUnknown(t *testing.T) {
	if !Pos(0).Unknown() {
		t.Error("zero Pos should be unknown")
	}
	if MakePos(1, 1).Unknown() {
		t.Error("MakePos(1,1) should be known")
	}
	if !MakePos(0, 1).Unknown() {
		t.Error("line 0 should be unknown")
	}
	if !MakePos(1, 0).Unknown() {
		t.Error("col 0 should be unknown")
	}
}
