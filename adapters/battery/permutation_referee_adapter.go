package battery

import (
	"context"
	"fmt"

	"aucperm/domain/auc"
	"aucperm/domain/core"
	"aucperm/domain/verdict"
	"aucperm/internal"

	"github.com/montanaflynn/stats"
)

// DefaultAlpha is the significance level used when none is configured
const DefaultAlpha = 0.05

// PermutationReferee judges classifier AUCs against permuted-label AUCs using the
// permutation test of Ojala & Garriga (2010), "Permutation tests for studying
// classifier performance", JMLR 11:
//
//	p = (|{x in P : x >= u}| + 1) / (|P| + 1)
//
// where P holds the mean AUCs of the permuted-label experiments and u is the mean
// AUC on the original labels. p is never 0 and at most 1.
type PermutationReferee struct {
	alpha  float64
	logger *internal.Logger
}

// NewPermutationReferee creates a referee with the default alpha
func NewPermutationReferee(logger *internal.Logger) *PermutationReferee {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PermutationReferee{
		alpha:  DefaultAlpha,
		logger: logger.WithComponent("PermutationReferee"),
	}
}

// SetAlpha configures the significance level; values outside (0, 1) are ignored
func (pr *PermutationReferee) SetAlpha(alpha float64) {
	if alpha <= 0 || alpha >= 1 {
		pr.logger.Warn("ignoring alpha %v outside (0, 1), keeping %v", alpha, pr.alpha)
		return
	}
	pr.alpha = alpha
}

// Alpha returns the configured significance level
func (pr *PermutationReferee) Alpha() float64 {
	return pr.alpha
}

// Test computes a p-value for every method and diagnosis present in permuted.
// Methods and diagnoses keep their first-appearance order.
func (pr *PermutationReferee) Test(ctx context.Context, permuted auc.PermutedSet, truth auc.TrueAUCs) (*verdict.PValueTable, error) {
	if permuted.Len() == 0 {
		return nil, fmt.Errorf("%w: no permuted AUCs to test against", core.ErrInsufficientData)
	}

	table := &verdict.PValueTable{Alpha: pr.alpha}
	for _, method := range permuted.Methods() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, diagnosis := range permuted.Diagnoses() {
			values := permuted.Values(method, diagnosis)
			if len(values) == 0 {
				continue
			}
			observed, ok := truth.Get(method, diagnosis)
			if !ok {
				return nil, fmt.Errorf("%w: %s/%s", core.ErrMissingTrueAUC, method, diagnosis)
			}

			p, exceeding := PermutationPValue(values, observed)
			status := verdict.StatusNotSignificant
			if p <= pr.alpha {
				status = verdict.StatusSignificant
			}

			table.Entries = append(table.Entries, verdict.PValue{
				Method:       method,
				Diagnosis:    diagnosis,
				TrueAUC:      observed,
				P:            p,
				Exceeding:    exceeding,
				Permutations: len(values),
				Status:       status,
				Null:         summarizeNull(values),
			})
			pr.logger.Debug("%s/%s: true AUC %.4f, %d/%d permuted >= true, p = %.4f",
				method, diagnosis, observed, exceeding, len(values), p)
		}
	}

	pr.logger.Info("permutation test: %d pairs, %d significant at alpha %.3f",
		len(table.Entries), table.SignificantCount(), pr.alpha)
	return table, nil
}

// PermutationPValue returns (count(x >= observed) + 1) / (len(permuted) + 1) and the count.
// NaN samples never count as exceeding.
func PermutationPValue(permuted []float64, observed float64) (float64, int) {
	exceeding := 0
	for _, x := range permuted {
		if x >= observed {
			exceeding++
		}
	}
	return float64(exceeding+1) / float64(len(permuted)+1), exceeding
}

// summarizeNull describes the permuted-label AUCs of one pair
func summarizeNull(values []float64) verdict.NullDistributionSummary {
	data := stats.Float64Data(auc.DropNaN(values))
	if data.Len() == 0 {
		return verdict.NullDistributionSummary{}
	}

	var summary verdict.NullDistributionSummary
	summary.Mean, _ = data.Mean()
	summary.Min, _ = data.Min()
	summary.Max, _ = data.Max()
	summary.Median, _ = data.Median()
	summary.Percentile95, _ = data.Percentile(95)
	if data.Len() > 1 {
		summary.StdDev, _ = data.StandardDeviationSample()
	}
	return summary
}
