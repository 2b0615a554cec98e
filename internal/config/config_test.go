package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gyeh/readmit/internal/boost"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_Defaults(t *testing.T) {
	c := New()
	if c.Training != boost.DefaultParams() {
		t.Errorf("expected default boost params, got %+v", c.Training)
	}
	if c.Target.Column != "readmitted" || c.Target.Positive != "<30" {
		t.Errorf("unexpected target %+v", c.Target)
	}
	if c.TestRatio != 0.2 || len(c.Fields) != 4 {
		t.Errorf("unexpected defaults: ratio=%v fields=%v", c.TestRatio, c.Fields)
	}
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeConfig(t, `
target:
  positive: ">30"
training:
  n_estimators: 50
  max_depth: 3
  test_ratio: 0.25
strict: [gender]
defaults:
  race: Caucasian
fields: [age, race]
threshold: 0.4
`)
	c := New()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Target.Column != "readmitted" || c.Target.Positive != ">30" {
		t.Errorf("target merge: got %+v", c.Target)
	}
	if c.Training.NEstimators != 50 || c.Training.MaxDepth != 3 {
		t.Errorf("training merge: got %+v", c.Training)
	}
	if c.Training.LearningRate != 0.05 {
		t.Errorf("unset learning rate must keep default, got %v", c.Training.LearningRate)
	}
	if c.TestRatio != 0.25 || c.Threshold != 0.4 {
		t.Errorf("ratio/threshold: got %v/%v", c.TestRatio, c.Threshold)
	}
	if len(c.Strict) != 1 || c.Strict[0] != "gender" {
		t.Errorf("strict: got %v", c.Strict)
	}
	if c.Defaults["race"] != "Caucasian" {
		t.Errorf("defaults: got %v", c.Defaults)
	}
	if len(c.Fields) != 2 {
		t.Errorf("fields: got %v", c.Fields)
	}
}

func TestLoadFromFile_ExplicitSettingsWin(t *testing.T) {
	path := writeConfig(t, `
training:
  n_estimators: 50
  max_depth: 3
  seed: 7
  test_ratio: 0.1
strict: [gender]
threshold: 0.4
`)
	c := New()
	c.Threshold = 0.7
	c.TestRatio = 0.3
	c.Training.MaxDepth = 9
	c.Strict = []string{"race"}
	c.MarkExplicit("threshold", "test_ratio", "max_depth", "strict")
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Threshold != 0.7 || c.TestRatio != 0.3 {
		t.Errorf("explicit threshold/test_ratio overwritten: %v/%v", c.Threshold, c.TestRatio)
	}
	if c.Training.MaxDepth != 9 {
		t.Errorf("explicit max_depth overwritten: %d", c.Training.MaxDepth)
	}
	if len(c.Strict) != 1 || c.Strict[0] != "race" {
		t.Errorf("explicit strict overwritten: %v", c.Strict)
	}
	if c.Training.NEstimators != 50 || c.Training.Seed != 7 {
		t.Errorf("unmarked settings must come from the file: %+v", c.Training)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad ratio":        "training:\n  test_ratio: 1.5\n",
		"bad threshold":    "threshold: 1.2\n",
		"duplicate strict": "strict: [race, race]\n",
		"not yaml":         "target: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := New()
			if err := c.LoadFromFile(writeConfig(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	c := New()
	if err := c.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateTrain(t *testing.T) {
	c := New()
	if err := c.ValidateTrain(); err == nil {
		t.Fatal("expected error without --data")
	}
	c.DataPath = writeConfig(t, "x")
	if err := c.ValidateTrain(); err == nil {
		t.Fatal("expected error without artifact dir")
	}
	c.ArtifactDir = t.TempDir()
	if err := c.ValidateTrain(); err != nil {
		t.Fatalf("ValidateTrain: %v", err)
	}
}

func TestValidateScore(t *testing.T) {
	c := New()
	c.ArtifactDir = t.TempDir()
	c.InputPath = filepath.Join(t.TempDir(), "missing.csv")
	c.OutputPath = "out.parquet"
	if err := c.ValidateScore(); err == nil {
		t.Fatal("expected error for missing input")
	}
	c.InputPath = writeConfig(t, "x")
	if err := c.ValidateScore(); err != nil {
		t.Fatalf("ValidateScore: %v", err)
	}
}

func TestValidateWithDSN(t *testing.T) {
	c := New()
	if err := c.ValidateWithDSN(); err == nil {
		t.Fatal("expected error without DSN")
	}
	c.DSN = "postgres://localhost/readmit"
	if err := c.ValidateWithDSN(); err != nil {
		t.Fatalf("ValidateWithDSN: %v", err)
	}
}
