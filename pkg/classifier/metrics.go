package classifier

import "fmt"

// Metrics is the acceptance report for a trained artifact. No fixed
// accuracy gate is enforced; the operator judges the numbers.
type Metrics struct {
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	F1        float64   `json:"f1"`
	Confusion [2][2]int `json:"confusion"` // [actual][predicted]
}

// Evaluate computes binary classification metrics over parallel slices.
func Evaluate(actual, predicted []int) Metrics {
	var m Metrics
	for i := range actual {
		m.Confusion[actual[i]][predicted[i]]++
	}

	tp := float64(m.Confusion[1][1])
	fp := float64(m.Confusion[0][1])
	fn := float64(m.Confusion[1][0])

	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func (m Metrics) String() string {
	return fmt.Sprintf(
		"precision=%.3f recall=%.3f f1=%.3f confusion=[tn=%d fp=%d fn=%d tp=%d]",
		m.Precision, m.Recall, m.F1,
		m.Confusion[0][0], m.Confusion[0][1], m.Confusion[1][0], m.Confusion[1][1],
	)
}
