package boost

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

func BinaryPredFromProba(proba []float64, threshold float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= threshold {
			out[i] = 1
		}
	}
	return out
}

func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// LogLoss is the mean binary cross-entropy of proba against yTrue.
func LogLoss(yTrue []int, proba []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	const eps = 1e-15
	losses := make([]float64, len(yTrue))
	for i, y := range yTrue {
		p := math.Min(math.Max(proba[i], eps), 1-eps)
		if y == 1 {
			losses[i] = -math.Log(p)
		} else {
			losses[i] = -math.Log(1 - p)
		}
	}
	return floats.Sum(losses) / float64(len(losses))
}

// ClassMetrics holds per-class precision, recall and F1.
type ClassMetrics struct {
	Precision float64 `yaml:"precision"`
	Recall    float64 `yaml:"recall"`
	F1        float64 `yaml:"f1"`
	Support   int     `yaml:"support"`
}

// Report is a binary classification report.
type Report struct {
	Classes  [2]ClassMetrics `yaml:"classes"`
	Accuracy float64         `yaml:"accuracy"`
	Macro    ClassMetrics    `yaml:"macro_avg"`
	Weighted ClassMetrics    `yaml:"weighted_avg"`
}

// Evaluate builds a classification report for binary labels.
func Evaluate(yTrue, yPred []int) Report {
	var r Report
	for class := 0; class <= 1; class++ {
		var tp, fp, fn, support int
		for i := range yTrue {
			t, p := yTrue[i] == class, yPred[i] == class
			switch {
			case t && p:
				tp++
			case !t && p:
				fp++
			case t && !p:
				fn++
			}
			if t {
				support++
			}
		}
		r.Classes[class] = classMetrics(tp, fp, fn, support)
	}
	r.Accuracy = Accuracy(yTrue, yPred)

	total := float64(r.Classes[0].Support + r.Classes[1].Support)
	for _, c := range r.Classes {
		r.Macro.Precision += c.Precision / 2
		r.Macro.Recall += c.Recall / 2
		r.Macro.F1 += c.F1 / 2
		if total > 0 {
			w := float64(c.Support) / total
			r.Weighted.Precision += c.Precision * w
			r.Weighted.Recall += c.Recall * w
			r.Weighted.F1 += c.F1 * w
		}
	}
	r.Macro.Support = int(total)
	r.Weighted.Support = int(total)
	return r
}

func classMetrics(tp, fp, fn, support int) ClassMetrics {
	m := ClassMetrics{Support: support}
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%14s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	for class, c := range r.Classes {
		fmt.Fprintf(&b, "%14d %9.2f %9.2f %9.2f %9d\n", class, c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Fprintf(&b, "\n%14s %9s %9s %9.2f %9d\n", "accuracy", "", "", r.Accuracy, r.Macro.Support)
	fmt.Fprintf(&b, "%14s %9.2f %9.2f %9.2f %9d\n", "macro avg", r.Macro.Precision, r.Macro.Recall, r.Macro.F1, r.Macro.Support)
	fmt.Fprintf(&b, "%14s %9.2f %9.2f %9.2f %9d\n", "weighted avg", r.Weighted.Precision, r.Weighted.Recall, r.Weighted.F1, r.Weighted.Support)
	return b.String()
}
