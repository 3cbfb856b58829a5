package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatBRL(t *testing.T) {
	cases := map[string]string{
		"0":         "R$ 0,00",
		"350":       "R$ 350,00",
		"1234.5":    "R$ 1.234,50",
		"1234567.8": "R$ 1.234.567,80",
		"-99.999":   "-R$ 100,00",
	}
	for in, want := range cases {
		if got := FormatBRL(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatBRL(%s) = %q want %q", in, got, want)
		}
	}
}

func TestParseMoney(t *testing.T) {
	cases := map[string]string{
		"350.00":      "350",
		"1.234,56":    "1234.56",
		"R$ 1.234,56": "1234.56",
		"0,01":        "0.01",
	}
	for in, want := range cases {
		got, err := ParseMoney(in)
		if err != nil {
			t.Fatalf("ParseMoney(%q) error: %v", in, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("ParseMoney(%q) = %s want %s", in, got, want)
		}
	}
	if _, err := ParseMoney("abc"); err == nil {
		t.Fatalf("expected error for abc")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" http://a.test, ;http://b.test\n")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected split: %#v", got)
	}
}
