package report

import (
	"math"
	"sort"
	"strconv"

	"aucperm/domain/auc"
	"aucperm/ports"
)

// PValueHeaders are the columns of the per-pair p-value table
var PValueHeaders = []string{
	"method", "diagnosis", "true_auc", "p_value", "exceeding", "permutations", "status",
	"null_mean", "null_std", "null_median", "null_p95",
}

// TrueAUCHeaders are the columns of the mean AUC table
var TrueAUCHeaders = []string{"method", "diagnosis", "true_auc", "unadjusted_auc"}

// pValueRecords lays out one row per tested method/diagnosis pair, in test order
func pValueRecords(r *ports.Report) [][]interface{} {
	if r.PValues == nil {
		return nil
	}
	rows := make([][]interface{}, 0, len(r.PValues.Entries))
	for _, e := range r.PValues.Entries {
		rows = append(rows, []interface{}{
			string(e.Method), string(e.Diagnosis), e.TrueAUC, e.P, e.Exceeding, e.Permutations, string(e.Status),
			e.Null.Mean, e.Null.StdDev, e.Null.Median, e.Null.Percentile95,
		})
	}
	return rows
}

// trueAUCRecords lays out the pooled means; the unadjusted column is nil when unknown
func trueAUCRecords(r *ports.Report) [][]interface{} {
	var rows [][]interface{}
	for _, m := range methodOrder(r) {
		for _, d := range diagnosisOrder(r, m) {
			trueAUC, ok := r.TrueAUCs.Get(m, d)
			if !ok {
				continue
			}
			var unadjusted interface{}
			if v, ok := r.Unadjusted.Get(m, d); ok {
				unadjusted = v
			}
			rows = append(rows, []interface{}{string(m), string(d), trueAUC, unadjusted})
		}
	}
	return rows
}

// methodOrder is the report's method list followed by any other method with a mean, sorted
func methodOrder(r *ports.Report) []auc.Method {
	seen := make(map[auc.Method]bool)
	var order []auc.Method
	for _, m := range r.Methods {
		if !seen[m] {
			seen[m] = true
			order = append(order, m)
		}
	}
	var rest []auc.Method
	for m := range r.TrueAUCs {
		if !seen[m] {
			rest = append(rest, m)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(order, rest...)
}

// diagnosisOrder follows the p-value table, then sorts what it does not cover
func diagnosisOrder(r *ports.Report, m auc.Method) []auc.Diagnosis {
	seen := make(map[auc.Diagnosis]bool)
	var order []auc.Diagnosis
	if r.PValues != nil {
		for _, e := range r.PValues.ForMethod(m) {
			if !seen[e.Diagnosis] {
				seen[e.Diagnosis] = true
				order = append(order, e.Diagnosis)
			}
		}
	}
	var rest []auc.Diagnosis
	for d := range r.TrueAUCs[m] {
		if !seen[d] {
			rest = append(rest, d)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(order, rest...)
}

// stringRecord renders a typed row as CSV fields
func stringRecord(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = x
		case int:
			out[i] = strconv.Itoa(x)
		case float64:
			out[i] = fToStr(x, 6)
		}
	}
	return out
}

func fToStr(x float64, decimals int) string {
	if math.IsNaN(x) {
		return ""
	}
	p := math.Pow10(decimals)
	x = math.Round(x*p) / p
	return strconv.FormatFloat(x, 'f', decimals, 64)
}
