package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	cases := []struct {
		in   any
		want string
		ok   bool
	}{
		{"[50-60)", "[50-60)", true},
		{"  Caucasian ", "Caucasian", true},
		{"", "", false},
		{"   ", "", false},
		{nil, "", false},
		{3, "3", true},
		{3.0, "3", true},
		{2.5, "2.5", true},
		{int64(40), "40", true},
		{json.Number("10"), "10", true},
		{true, "true", true},
	}
	for _, c := range cases {
		got, ok := Text(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("Text(%#v) = %q,%v; want %q,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNumber(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{3, 3, true},
		{int32(7), 7, true},
		{uint8(9), 9, true},
		{2.5, 2.5, true},
		{float32(1.5), 1.5, true},
		{" 40 ", 40, true},
		{json.Number("12.75"), 12.75, true},
		{"not-a-number", 0, false},
		{"", 0, false},
		{nil, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{"NaN", 0, false},
		{struct{}{}, 0, false},
	}
	for _, c := range cases {
		got, ok := Number(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("Number(%#v) = %v,%v; want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestHeader(t *testing.T) {
	if got := Header("\ufeff encounter_id "); got != "encounter_id" {
		t.Errorf("expected BOM and spaces stripped, got %q", got)
	}
	if got := Header("A1Cresult"); got != "A1Cresult" {
		t.Errorf("expected case preserved, got %q", got)
	}
}

func TestRowHash_ColumnOrderIndependent(t *testing.T) {
	a := RowHash([]string{"age", "race"}, []string{"[50-60)", "Caucasian"})
	b := RowHash([]string{"race", "age"}, []string{"Caucasian", "[50-60)"})
	if !bytes.Equal(a, b) {
		t.Error("row hash must not depend on column order")
	}
	c := RowHash([]string{"age", "race"}, []string{"[60-70)", "Caucasian"})
	if bytes.Equal(a, c) {
		t.Error("different rows must hash differently")
	}
	d := RowHash([]string{"age", "race", "weight"}, []string{"[50-60)", "Caucasian", ""})
	if !bytes.Equal(a, d) {
		t.Error("blank cells must hash like absent columns")
	}
}

func TestReaderHash_MatchesContent(t *testing.T) {
	got, err := readerHash(strings.NewReader("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("unexpected digest %s", got)
	}
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	os.WriteFile(path, []byte("abc"), 0644)
	got, err := FileHash(path)
	if err != nil {
		t.Fatalf("FileHash: %v", err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
