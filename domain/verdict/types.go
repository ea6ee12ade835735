package verdict

import (
	"aucperm/domain/auc"
)

// Status is the outcome of a permutation test at the configured alpha
type Status string

const (
	StatusSignificant    Status = "significant"
	StatusNotSignificant Status = "not_significant"
)

// PValue is the permutation-test outcome for one method/diagnosis pair
type PValue struct {
	Method       auc.Method              `json:"method"`
	Diagnosis    auc.Diagnosis           `json:"diagnosis"`
	TrueAUC      float64                 `json:"true_auc"`
	P            float64                 `json:"p_value"`
	Exceeding    int                     `json:"exceeding"`
	Permutations int                     `json:"permutations"`
	Status       Status                  `json:"status"`
	Null         NullDistributionSummary `json:"null_distribution"`
}

// Significant reports whether the pair passed the test
func (p PValue) Significant() bool {
	return p.Status == StatusSignificant
}

// NullDistributionSummary provides key statistics about the permuted-label AUCs
type NullDistributionSummary struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Median       float64 `json:"median"`
	Percentile95 float64 `json:"percentile_95"`
}

// PValueTable holds p-values in method-major, diagnosis-minor order
type PValueTable struct {
	Alpha   float64  `json:"alpha"`
	Entries []PValue `json:"entries"`
}

// Lookup finds the entry for a pair
func (t *PValueTable) Lookup(m auc.Method, d auc.Diagnosis) (PValue, bool) {
	for _, e := range t.Entries {
		if e.Method == m && e.Diagnosis == d {
			return e, true
		}
	}
	return PValue{}, false
}

// ForMethod returns the entries of one method
func (t *PValueTable) ForMethod(m auc.Method) []PValue {
	var out []PValue
	for _, e := range t.Entries {
		if e.Method == m {
			out = append(out, e)
		}
	}
	return out
}

// SignificantCount counts pairs at or below alpha
func (t *PValueTable) SignificantCount() int {
	n := 0
	for _, e := range t.Entries {
		if e.Significant() {
			n++
		}
	}
	return n
}
