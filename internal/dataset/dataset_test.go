package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gyeh/readmit/internal/schema"
)

const sampleCSV = `encounter_id,race,gender,age,weight,time_in_hospital,num_medications,readmitted
1,Caucasian,Female,[50-60),?,3,10,<30
2,AfricanAmerican,Male,[60-70),?,5,12,>30
3,Caucasian,Female,[70-80),?,2,10,NO
4,?,Male,[50-60),[75-100),1,20,<30
5,Caucasian,Female,[80-90),?,7,10,>30
`

func loadSample(t *testing.T) *Frame {
	t.Helper()
	f, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return f
}

func TestReadCSV(t *testing.T) {
	f := loadSample(t)
	if len(f.Header) != 8 {
		t.Fatalf("expected 8 columns, got %d", len(f.Header))
	}
	if len(f.Rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(f.Rows))
	}
	if f.Column("readmitted") != 7 {
		t.Errorf("expected readmitted at 7, got %d", f.Column("readmitted"))
	}
}

func TestReadCSV_RaggedRowsRejected(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("a,b\n1,2\n3\n4,5\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(f.Rows) != 2 || f.Rejected != 1 {
		t.Errorf("expected 2 rows and 1 rejected, got %d and %d", len(f.Rows), f.Rejected)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	os.WriteFile(path, []byte(sampleCSV), 0644)
	f, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(f.Rows) != 5 {
		t.Errorf("expected 5 rows, got %d", len(f.Rows))
	}
}

func TestLabel(t *testing.T) {
	l, err := Label(loadSample(t), DefaultTarget)
	if err != nil {
		t.Fatalf("Label: %v", err)
	}
	if len(l.Labels) != 4 {
		t.Fatalf("expected NO row dropped leaving 4, got %d", len(l.Labels))
	}
	want := []int{1, 0, 1, 0}
	for i := range want {
		if l.Labels[i] != want[i] {
			t.Errorf("label %d: expected %d, got %d", i, want[i], l.Labels[i])
		}
	}
	if l.Features.Column("readmitted") != -1 {
		t.Error("target column must be removed from features")
	}
	if len(l.Features.Rows[0]) != 7 {
		t.Errorf("expected 7 feature cells, got %d", len(l.Features.Rows[0]))
	}
}

func TestLabel_MissingTarget(t *testing.T) {
	if _, err := Label(loadSample(t), Target{Column: "outcome"}); err == nil {
		t.Fatal("expected error for missing target column")
	}
}

func TestInferKinds(t *testing.T) {
	l, _ := Label(loadSample(t), DefaultTarget)
	kinds := InferKinds(l.Features)
	want := map[string]schema.Kind{
		"encounter_id":     schema.Numeric,
		"race":             schema.Categorical,
		"gender":           schema.Categorical,
		"age":              schema.Categorical,
		"weight":           schema.Categorical,
		"time_in_hospital": schema.Numeric,
		"num_medications":  schema.Numeric,
	}
	for i, name := range l.Features.Header {
		if kinds[i] != want[name] {
			t.Errorf("%s: expected %s, got %s", name, want[name], kinds[i])
		}
	}
}

func TestModes(t *testing.T) {
	l, _ := Label(loadSample(t), DefaultTarget)
	kinds := InferKinds(l.Features)
	modes := Modes(l.Features, kinds)
	got := make(map[string]string)
	for i, name := range l.Features.Header {
		got[name] = modes[i]
	}
	if got["race"] != "Caucasian" {
		t.Errorf("race mode: expected Caucasian, got %q", got["race"])
	}
	if got["age"] != "[50-60)" {
		t.Errorf("age mode: expected [50-60), got %q", got["age"])
	}
	if got["num_medications"] != "10" {
		t.Errorf("num_medications mode: expected 10, got %q", got["num_medications"])
	}
}

func TestSchema(t *testing.T) {
	l, _ := Label(loadSample(t), DefaultTarget)
	s, err := Schema(l.Features)
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if s.Len() != 7 {
		t.Fatalf("expected 7 columns, got %d", s.Len())
	}
	if c, _ := s.Column("gender"); c.Kind != schema.Categorical || c.Fill == "" {
		t.Errorf("gender: got %+v", c)
	}
}

func TestSplit(t *testing.T) {
	train, test := Split(100, 0.2, 42)
	if len(train) != 80 || len(test) != 20 {
		t.Fatalf("expected 80/20, got %d/%d", len(train), len(test))
	}
	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		if seen[i] {
			t.Fatalf("index %d appears twice", i)
		}
		seen[i] = true
	}
	train2, _ := Split(100, 0.2, 42)
	for i := range train {
		if train[i] != train2[i] {
			t.Fatal("split must be deterministic for a fixed seed")
		}
	}
}

func TestSelect(t *testing.T) {
	f := loadSample(t)
	sub := f.Select([]int{4, 0})
	if len(sub.Rows) != 2 || sub.Rows[0][0] != "5" || sub.Rows[1][0] != "1" {
		t.Errorf("unexpected selection: %v", sub.Rows)
	}
}

func TestStratify(t *testing.T) {
	f := &Frame{Header: []string{"x", "readmitted"}}
	for i := 0; i < 30; i++ {
		class := "NO"
		switch {
		case i%10 == 0:
			class = "<30"
		case i%3 == 0:
			class = ">30"
		}
		f.Rows = append(f.Rows, []string{strconv.Itoa(i), class})
	}
	out, err := Stratify(f, "readmitted", 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[string]int)
	prev := -1
	for _, row := range out.Rows {
		counts[row[1]]++
		n, _ := strconv.Atoi(row[0])
		if n <= prev {
			t.Fatalf("rows out of original order: %v", out.Rows)
		}
		prev = n
	}
	if counts["<30"] != 3 || counts[">30"] != 4 || counts["NO"] != 4 {
		t.Errorf("unexpected class counts: %v", counts)
	}
	if _, err := Stratify(f, "missing", 4, 1); err == nil {
		t.Error("expected error for missing column")
	}
}

func TestWriteCSV(t *testing.T) {
	f := &Frame{Header: []string{"a", "b"}, Rows: [][]string{{"1", "x,y"}, {"2", ""}}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, f); err != nil {
		t.Fatal(err)
	}
	back, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Rows) != 2 || back.Rows[0][1] != "x,y" {
		t.Errorf("round trip mismatch: %+v", back)
	}
}
