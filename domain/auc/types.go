package auc

import (
	"fmt"
	"math"
	"strings"

	"aucperm/domain/core"

	"github.com/montanaflynn/stats"
)

// Method names a classifier configuration, e.g. "logistic_regression_ovr"
type Method string

// Diagnosis names a prediction target column in a results table
type Diagnosis string

// Segmentation names the segmentation algorithm the features came from
type Segmentation string

// DefaultSegmentation is used when no segmentation is requested
const DefaultSegmentation Segmentation = "freesurfer"

func (m Method) String() string       { return string(m) }
func (d Diagnosis) String() string    { return string(d) }
func (s Segmentation) String() string { return string(s) }

// Methods converts plain strings to Method values
func Methods(names []string) []Method {
	out := make([]Method, len(names))
	for i, n := range names {
		out[i] = Method(n)
	}
	return out
}

// Variant selects which experiment runs a query reads
type Variant struct {
	Permuted bool
	Adjusted bool
}

const unadjustedSuffix = "unadjusted"

// Prefix is "permuted" or "unpermuted"; it names run sub-folders and result files
func (v Variant) Prefix() string {
	if v.Permuted {
		return "permuted"
	}
	return "unpermuted"
}

// RunPrefix is the required prefix of a top-level run directory
func (v Variant) RunPrefix() string {
	return "run_" + v.Prefix()
}

// MatchesRunDir reports whether a top-level run directory belongs to this variant
func (v Variant) MatchesRunDir(name string) bool {
	if !strings.HasPrefix(name, v.RunPrefix()) {
		return false
	}
	return strings.HasSuffix(name, unadjustedSuffix) != v.Adjusted
}

// MatchesSubFolder reports whether a run sub-folder belongs to this variant
func (v Variant) MatchesSubFolder(name string) bool {
	return strings.HasPrefix(name, v.Prefix())
}

// FileName returns the per-method results file name, roc_auc_<segmentation>_<prefix>.csv
func (v Variant) FileName(seg Segmentation) string {
	return fmt.Sprintf("roc_auc_%s_%s.csv", seg, v.Prefix())
}

func (v Variant) String() string {
	adj := "adjusted"
	if !v.Adjusted {
		adj = unadjustedSuffix
	}
	return v.Prefix() + "/" + adj
}

// ResultFile is one discovered results table for a method
type ResultFile struct {
	Method    Method `json:"method"`
	Path      string `json:"path"`
	RunDir    string `json:"run_dir"`
	SubFolder string `json:"sub_folder"`
}

// PermutedSample is the mean AUC of one permuted-label experiment for a method/diagnosis pair
type PermutedSample struct {
	Method    Method    `json:"method"`
	Diagnosis Diagnosis `json:"diagnosis"`
	MeanAUC   float64   `json:"mean_auc"`
	Source    string    `json:"source,omitempty"`
}

// PermutedSet is the long-format table of permuted-label mean AUCs, in load order
type PermutedSet struct {
	Samples []PermutedSample `json:"samples"`
}

// Add appends a sample
func (s *PermutedSet) Add(sample PermutedSample) {
	s.Samples = append(s.Samples, sample)
}

// Len returns the number of samples
func (s PermutedSet) Len() int {
	return len(s.Samples)
}

// Methods returns the distinct methods in first-appearance order
func (s PermutedSet) Methods() []Method {
	seen := make(map[Method]bool)
	var out []Method
	for _, sample := range s.Samples {
		if !seen[sample.Method] {
			seen[sample.Method] = true
			out = append(out, sample.Method)
		}
	}
	return out
}

// Diagnoses returns the distinct diagnoses in first-appearance order
func (s PermutedSet) Diagnoses() []Diagnosis {
	seen := make(map[Diagnosis]bool)
	var out []Diagnosis
	for _, sample := range s.Samples {
		if !seen[sample.Diagnosis] {
			seen[sample.Diagnosis] = true
			out = append(out, sample.Diagnosis)
		}
	}
	return out
}

// Values returns the permuted mean AUCs of one method/diagnosis pair
func (s PermutedSet) Values(m Method, d Diagnosis) []float64 {
	var out []float64
	for _, sample := range s.Samples {
		if sample.Method == m && sample.Diagnosis == d {
			out = append(out, sample.MeanAUC)
		}
	}
	return out
}

// Filter keeps only samples of the given methods
func (s PermutedSet) Filter(methods []Method) PermutedSet {
	keep := make(map[Method]bool, len(methods))
	for _, m := range methods {
		keep[m] = true
	}
	var out PermutedSet
	for _, sample := range s.Samples {
		if keep[sample.Method] {
			out.Add(sample)
		}
	}
	return out
}

// AUCPool concatenates every trial AUC across source files, per method and diagnosis
type AUCPool struct {
	methods   []Method
	diagnoses map[Method][]Diagnosis
	values    map[Method]map[Diagnosis][]float64
}

// NewAUCPool creates an empty pool. Methods listed here keep their order even when no data arrives.
func NewAUCPool(methods []Method) *AUCPool {
	p := &AUCPool{
		diagnoses: make(map[Method][]Diagnosis),
		values:    make(map[Method]map[Diagnosis][]float64),
	}
	for _, m := range methods {
		p.ensureMethod(m)
	}
	return p
}

func (p *AUCPool) ensureMethod(m Method) {
	if _, ok := p.values[m]; ok {
		return
	}
	p.methods = append(p.methods, m)
	p.values[m] = make(map[Diagnosis][]float64)
}

// Add appends trial AUCs for a method/diagnosis pair
func (p *AUCPool) Add(m Method, d Diagnosis, values ...float64) {
	p.ensureMethod(m)
	if _, ok := p.values[m][d]; !ok {
		p.diagnoses[m] = append(p.diagnoses[m], d)
		p.values[m][d] = nil
	}
	p.values[m][d] = append(p.values[m][d], values...)
}

// Methods returns the pool's methods in insertion order
func (p *AUCPool) Methods() []Method {
	return append([]Method(nil), p.methods...)
}

// Diagnoses returns the diagnoses seen for a method in insertion order
func (p *AUCPool) Diagnoses(m Method) []Diagnosis {
	return append([]Diagnosis(nil), p.diagnoses[m]...)
}

// Values returns all pooled trial AUCs for a pair
func (p *AUCPool) Values(m Method, d Diagnosis) []float64 {
	return append([]float64(nil), p.values[m][d]...)
}

// Means returns the unweighted arithmetic mean over every pooled trial row.
// NaN cells are skipped; a pair with no finite value is an error.
func (p *AUCPool) Means() (TrueAUCs, error) {
	out := make(TrueAUCs, len(p.methods))
	for _, m := range p.methods {
		out[m] = make(map[Diagnosis]float64, len(p.diagnoses[m]))
		for _, d := range p.diagnoses[m] {
			mean, err := stats.Mean(stats.Float64Data(DropNaN(p.values[m][d])))
			if err != nil {
				return nil, fmt.Errorf("%w: %s/%s: %v", core.ErrInsufficientData, m, d, err)
			}
			out[m][d] = mean
		}
	}
	return out, nil
}

// TrueAUCs holds the mean unpermuted AUC per method and diagnosis
type TrueAUCs map[Method]map[Diagnosis]float64

// Get looks up a pair
func (t TrueAUCs) Get(m Method, d Diagnosis) (float64, bool) {
	byDiag, ok := t[m]
	if !ok {
		return 0, false
	}
	v, ok := byDiag[d]
	return v, ok
}

// Set stores a pair
func (t TrueAUCs) Set(m Method, d Diagnosis, v float64) {
	if t[m] == nil {
		t[m] = make(map[Diagnosis]float64)
	}
	t[m][d] = v
}

// DropNaN returns values without NaN entries
func DropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
