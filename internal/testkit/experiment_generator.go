package testkit

import (
	"fmt"
	"math/rand"

	"aucperm/domain/auc"

	"github.com/montanaflynn/stats"
)

// ExperimentConfig configures the synthetic experiment generator
type ExperimentConfig struct {
	Methods   []auc.Method `json:"methods"`
	Diagnoses []string     `json:"diagnoses"`
	// Signal per diagnosis on the unpermuted runs; missing diagnoses get 0.5
	TrueAUC         map[string]float64 `json:"true_auc"`
	UnpermutedRuns  int                `json:"unpermuted_runs"`
	UnpermutedRows  int                `json:"unpermuted_rows"`
	PermutedRuns    int                `json:"permuted_runs"`
	PermutedRows    int                `json:"permuted_rows"`
	Noise           float64            `json:"noise"`
	WriteUnadjusted bool               `json:"write_unadjusted"`
	// Shift applied to unadjusted AUCs relative to the adjusted ones
	UnadjustedShift float64 `json:"unadjusted_shift"`
	Seed            int64   `json:"seed"`
}

// DefaultExperimentConfig mirrors the shape of the published experiment at a smaller scale
func DefaultExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		Methods:   []auc.Method{"logistic_regression_ovr", "xgboost_cce"},
		Diagnoses: []string{"MDD", "BIP", "PSY", "ADHD", "ODD", "CD", "PTSD", "OCD"},
		TrueAUC: map[string]float64{
			"MDD": 0.56, "BIP": 0.51, "PSY": 0.53, "ADHD": 0.58,
			"ODD": 0.55, "CD": 0.54, "PTSD": 0.5, "OCD": 0.52,
		},
		UnpermutedRuns:  2,
		UnpermutedRows:  150,
		PermutedRuns:    20,
		PermutedRows:    5,
		Noise:           0.02,
		WriteUnadjusted: true,
		UnadjustedShift: 0.03,
		Seed:            42,
	}
}

// Experiment is what the generator wrote, with the values a loader should reproduce
type Experiment struct {
	Files []string
	// Mean of every unpermuted adjusted trial row per method/diagnosis
	ExpectedTrue auc.TrueAUCs
	// Mean per permuted file per method/diagnosis, in write order
	ExpectedPermuted auc.PermutedSet
}

// ExperimentGenerator writes deterministic synthetic results trees
type ExperimentGenerator struct {
	config ExperimentConfig
	rng    *rand.Rand
}

// NewExperimentGenerator creates a generator seeded from config
func NewExperimentGenerator(config ExperimentConfig) *ExperimentGenerator {
	return &ExperimentGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate writes the experiment into tree
func (g *ExperimentGenerator) Generate(tree *ResultsTree) (*Experiment, error) {
	exp := &Experiment{ExpectedTrue: auc.TrueAUCs{}}
	pooled := auc.NewAUCPool(g.config.Methods)

	for run := 0; run < g.config.UnpermutedRuns; run++ {
		for _, adjusted := range g.adjustedVariants() {
			runDir := fmt.Sprintf("run_unpermuted_%02d", run)
			shift := 0.0
			if !adjusted {
				runDir += "_unadjusted"
				shift = g.config.UnadjustedShift
			}
			for _, method := range g.config.Methods {
				rows := g.rows(g.config.UnpermutedRows, func(d string) float64 { return g.signal(d) + shift })
				path, err := tree.WriteTable(TableSpec{
					RunDir:       runDir,
					SubFolder:    fmt.Sprintf("unpermuted_%02d", run),
					Method:       method,
					Variant:      auc.Variant{Permuted: false, Adjusted: adjusted},
					Diagnoses:    g.config.Diagnoses,
					Rows:         rows,
					ExtraColumns: map[string]string{"Method": string(method)},
				})
				if err != nil {
					return nil, err
				}
				exp.Files = append(exp.Files, path)
				if adjusted {
					for j, d := range g.config.Diagnoses {
						pooled.Add(method, auc.Diagnosis(d), column(rows, j)...)
					}
				}
			}
		}
	}

	for perm := 0; perm < g.config.PermutedRuns; perm++ {
		for _, method := range g.config.Methods {
			rows := g.rows(g.config.PermutedRows, func(string) float64 { return 0.5 })
			path, err := tree.WriteTable(TableSpec{
				RunDir:       "run_permuted_00",
				SubFolder:    fmt.Sprintf("permuted_%03d", perm),
				Method:       method,
				Variant:      auc.Variant{Permuted: true, Adjusted: true},
				Diagnoses:    g.config.Diagnoses,
				Rows:         rows,
				ExtraColumns: map[string]string{"filename": fmt.Sprintf("perm_%03d.pkl", perm)},
			})
			if err != nil {
				return nil, err
			}
			exp.Files = append(exp.Files, path)
			for j, d := range g.config.Diagnoses {
				mean, err := stats.Mean(column(rows, j))
				if err != nil {
					return nil, err
				}
				exp.ExpectedPermuted.Add(auc.PermutedSample{Method: method, Diagnosis: auc.Diagnosis(d), MeanAUC: mean, Source: path})
			}
		}
	}

	truth, err := pooled.Means()
	if err != nil {
		return nil, err
	}
	exp.ExpectedTrue = truth
	return exp, nil
}

func (g *ExperimentGenerator) adjustedVariants() []bool {
	if g.config.WriteUnadjusted {
		return []bool{true, false}
	}
	return []bool{true}
}

func (g *ExperimentGenerator) signal(diagnosis string) float64 {
	if v, ok := g.config.TrueAUC[diagnosis]; ok {
		return v
	}
	return 0.5
}

// rows draws n trial rows with Gaussian noise around center(diagnosis), clamped to [0, 1]
func (g *ExperimentGenerator) rows(n int, center func(string) float64) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, len(g.config.Diagnoses))
		for j, d := range g.config.Diagnoses {
			v := center(d) + g.rng.NormFloat64()*g.config.Noise
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			row[j] = v
		}
		out[i] = row
	}
	return out
}

func column(rows [][]float64, j int) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[j]
	}
	return out
}
