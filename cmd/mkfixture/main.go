// mkfixture creates a small class-stratified training fixture from the full
// encounter CSV, so every outcome is represented in tests and demos.
// Usage: go run ./cmd/mkfixture --in testdata/diabetic_data.csv --out testdata/diabetic-small.csv --per-class 100
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/gyeh/readmit/internal/dataset"
)

func main() {
	in := flag.String("in", "testdata/diabetic_data.csv", "input csv")
	out := flag.String("out", "testdata/diabetic-small.csv", "output csv")
	target := flag.String("target", dataset.DefaultTarget.Column, "column to stratify on")
	perClass := flag.Int("per-class", 100, "max rows per target value")
	seed := flag.Int64("seed", 42, "sampling seed")
	checkOnly := flag.Bool("check", false, "only print class counts, don't write")
	flag.Parse()

	f, err := dataset.LoadCSV(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load input: %v\n", err)
		os.Exit(1)
	}
	if *checkOnly {
		printCounts(f, *target)
		return
	}

	small, err := dataset.Stratify(f, *target, *perClass, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stratify: %v\n", err)
		os.Exit(1)
	}

	outFile, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	if err := dataset.WriteCSV(outFile, small); err != nil {
		outFile.Close()
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
	if err := outFile.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d of %d rows to %s (%d malformed skipped)\n", len(small.Rows), len(f.Rows), *out, f.Rejected)
	printCounts(small, *target)
}

func printCounts(f *dataset.Frame, target string) {
	col := f.Column(target)
	if col < 0 {
		fmt.Fprintf(os.Stderr, "column %q not found\n", target)
		os.Exit(1)
	}
	counts := make(map[string]int)
	for _, row := range f.Rows {
		counts[row[col]]++
	}
	classes := make([]string, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	for _, c := range classes {
		fmt.Printf("  %-8s %d\n", c, counts[c])
	}
}
