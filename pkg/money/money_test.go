package money

import "testing"

func TestFromModel(t *testing.T) {
	m := FromModel(1.5)
	if got, want := m.String(), "150000.00"; got != want {
		t.Errorf("FromModel(1.5) = %s, want %s", got, want)
	}
}

func TestDivInt(t *testing.T) {
	m := New(100).DivInt(8)
	if got, want := m.Round().String(), "12.50"; got != want {
		t.Errorf("100/8 = %s, want %s", got, want)
	}
}

func TestFormat(t *testing.T) {
	if got, want := New(42).Format(), "42.00 kr."; got != want {
		t.Errorf("Format() = %s, want %s", got, want)
	}
}
