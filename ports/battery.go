package ports

import (
	"context"

	"aucperm/domain/auc"
	"aucperm/domain/verdict"
)

// PermutationTestPort computes permutation-test p-values
type PermutationTestPort interface {
	Test(ctx context.Context, permuted auc.PermutedSet, truth auc.TrueAUCs) (*verdict.PValueTable, error)
}
