package types

import "testing"

func TestIDString(t *testing.T) {
	if got := ColumnID(7).String(); got != "7" {
		t.Errorf("ColumnID(7).String() = %q, want %q", got, "7")
	}
	if got := CardID(1700000000123).String(); got != "1700000000123" {
		t.Errorf("CardID.String() = %q, want %q", got, "1700000000123")
	}
}

func TestIDToInt64(t *testing.T) {
	if got := CardID(-1).ToInt64(); got != -1 {
		t.Errorf("CardID(-1).ToInt64() = %d, want -1", got)
	}
	if got := ColumnID(3).ToInt64(); got != 3 {
		t.Errorf("ColumnID(3).ToInt64() = %d, want 3", got)
	}
}
