package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func newPredictFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	predictFields = nil
	cmd := &cobra.Command{Use: "predict"}
	cmd.Flags().StringArrayVar(&predictFields, "field", nil, "")
	for _, nf := range namedFields {
		cmd.Flags().String(nf.flag, "", nf.usage)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	return cmd
}

func TestParseObserved(t *testing.T) {
	cmd := newPredictFlags(t,
		"--field", "race=Caucasian",
		"--field", "time_in_hospital=3",
		"--time-in-hospital", "10",
		"--age", "[70-80)",
	)
	got, err := parseObserved(cmd)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"race":             "Caucasian",
		"time_in_hospital": "10",
		"age":              "[70-80)",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d fields, got %v", len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %q, got %v", k, v, got[k])
		}
	}
}

func TestParseObserved_ValueWithEquals(t *testing.T) {
	cmd := newPredictFlags(t, "--field", "diag_1=a=b")
	got, err := parseObserved(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if got["diag_1"] != "a=b" {
		t.Errorf("expected a=b, got %v", got["diag_1"])
	}
}

func TestParseObserved_Malformed(t *testing.T) {
	for _, arg := range []string{"novalue", "=x"} {
		cmd := newPredictFlags(t, "--field", arg)
		if _, err := parseObserved(cmd); err == nil {
			t.Errorf("%q: expected error", arg)
		}
	}
}
