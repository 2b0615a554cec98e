package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/readmit/internal/exitcode"
	"github.com/gyeh/readmit/internal/predict"
	"github.com/gyeh/readmit/internal/reconcile"
)

var (
	predictFields []string
	predictJSON   bool
)

// namedFields maps convenience flags to schema columns.
var namedFields = []struct{ flag, column, usage string }{
	{"age", "age", "Age bracket, e.g. [70-80)"},
	{"time-in-hospital", "time_in_hospital", "Days in hospital"},
	{"num-lab-procedures", "num_lab_procedures", "Number of lab procedures"},
	{"num-medications", "num_medications", "Number of medications"},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict readmission risk for one encounter",
	RunE:  runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringArrayVar(&predictFields, "field", nil, "Observed value as name=value (repeatable)")
	for _, nf := range namedFields {
		f.String(nf.flag, "", nf.usage)
	}
	f.Float64Var(&cfg.Threshold, "threshold", 0, "Positive-class probability cut (default from the bundle)")
	f.BoolVar(&predictJSON, "json", false, "Print the prediction as JSON")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	log := setup(cmd)

	observed, err := parseObserved(cmd)
	if err != nil {
		log.Error().Err(err).Msg("invalid field")
		os.Exit(exitcode.UsageError)
	}

	p := loadPredictor(log)
	pred, err := p.Predict(observed)
	if err != nil {
		var ie *predict.InferenceError
		if errors.As(err, &ie) {
			err = ie.Err
		}
		log.Error().Err(err).Msg("inference failed")
		os.Exit(exitcode.InferenceError)
	}

	if predictJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"id":          pred.ID.String(),
			"model_id":    pred.ModelID,
			"label":       pred.Label,
			"risk":        pred.Risk,
			"probability": pred.Probability,
			"defaulted":   pred.Defaulted(),
			"recovered":   pred.Recovered(),
			"ignored":     pred.Record.Ignored,
		})
	}

	fmt.Printf("Readmission risk: %s (probability %.3f, threshold %.2f)\n",
		strings.ToUpper(string(pred.Risk)), pred.Probability, p.Threshold())
	if d := pred.Defaulted(); len(d) > 0 {
		fmt.Printf("Defaulted columns: %s\n", strings.Join(d, ", "))
	}
	if r := pred.Recovered(); len(r) > 0 {
		fmt.Printf("Unparseable values replaced: %s\n", strings.Join(r, ", "))
	}
	if len(pred.Record.Ignored) > 0 {
		fmt.Printf("Ignored fields: %s\n", strings.Join(pred.Record.Ignored, ", "))
	}
	return nil
}

// parseObserved collects --field pairs and the named flags that were set.
// Named flags win over --field for the same column.
func parseObserved(cmd *cobra.Command) (reconcile.Observed, error) {
	observed := make(reconcile.Observed)
	for _, kv := range predictFields {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("--field %q: expected name=value", kv)
		}
		observed[name] = value
	}
	for _, nf := range namedFields {
		if !cmd.Flags().Changed(nf.flag) {
			continue
		}
		v, err := cmd.Flags().GetString(nf.flag)
		if err != nil {
			return nil, err
		}
		observed[nf.column] = v
	}
	return observed, nil
}
