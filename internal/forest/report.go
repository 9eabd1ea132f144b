package forest

import (
	"github.com/sjwhitworth/golearn/evaluation"
)

type ClassMetrics struct {
	Class     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report mirrors a classification report: per-class precision, recall, F1
// and support plus macro and support-weighted averages.
type Report struct {
	Accuracy  float64
	Classes   []ClassMetrics
	Macro     ClassMetrics
	Weighted  ClassMetrics
	Confusion evaluation.ConfusionMatrix
}

// Evaluate scores predictions against the reference labels. Metrics with an
// empty denominator are reported as 0.
func Evaluate(yTrue, yPred []string) Report {
	classes := Classes(append(append([]string(nil), yTrue...), yPred...))
	cm := make(evaluation.ConfusionMatrix, len(classes))
	for _, c := range classes {
		cm[c] = make(map[string]int, len(classes))
	}
	for i := range yTrue {
		cm[yTrue[i]][yPred[i]]++
	}

	rep := Report{Confusion: cm, Macro: ClassMetrics{Class: "macro avg"}, Weighted: ClassMetrics{Class: "weighted avg"}}
	if len(yTrue) > 0 {
		rep.Accuracy = evaluation.GetAccuracy(cm)
	}
	total := 0
	for _, c := range classes {
		m := ClassMetrics{Class: c}
		predicted := 0
		for _, ref := range classes {
			predicted += cm[ref][c]
			m.Support += cm[c][ref]
		}
		if predicted > 0 {
			m.Precision = evaluation.GetPrecision(c, cm)
		}
		if m.Support > 0 {
			m.Recall = evaluation.GetRecall(c, cm)
		}
		if m.Precision > 0 && m.Recall > 0 {
			m.F1 = evaluation.GetF1Score(c, cm)
		}
		rep.Classes = append(rep.Classes, m)

		total += m.Support
		rep.Macro.Precision += m.Precision
		rep.Macro.Recall += m.Recall
		rep.Macro.F1 += m.F1
		w := float64(m.Support)
		rep.Weighted.Precision += w * m.Precision
		rep.Weighted.Recall += w * m.Recall
		rep.Weighted.F1 += w * m.F1
	}
	if k := float64(len(classes)); k > 0 {
		rep.Macro.Precision /= k
		rep.Macro.Recall /= k
		rep.Macro.F1 /= k
	}
	if total > 0 {
		w := float64(total)
		rep.Weighted.Precision /= w
		rep.Weighted.Recall /= w
		rep.Weighted.F1 /= w
	}
	rep.Macro.Support, rep.Weighted.Support = total, total
	return rep
}
