package spectra

import (
	"fmt"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/mutmatrix/mutation"
	"github.com/grailbio/mutmatrix/strand"
)

// Classifier derives context labels for one sample's mutations of one
// type.  The returned slice is aligned with muts: one label per mutation,
// "" for a mutation whose context cannot be resolved (reference mismatch,
// chromosome edge).  Implementations must be safe for concurrent use; the
// pipeline calls Contexts from one goroutine per sample.
type Classifier interface {
	Contexts(muts []mutation.Mutation, t mutation.Type) ([]string, error)
}

// Opts configures a matrix computation.
type Opts struct {
	// Mode selects transcription- or replication-strand annotation.  The
	// ranges passed to ComputeStrandedMatrices must carry the matching tag.
	Mode strand.Mode
	// Types is the set of mutation types to tabulate.  Empty means SNV only.
	Types []mutation.Type
	// Parallelism bounds the number of samples processed concurrently.
	// Zero or negative means runtime.NumCPU().
	Parallelism int
}

// DefaultOpts is the zero-configuration run: transcription mode, SNVs only,
// one worker per CPU.
var DefaultOpts = Opts{
	Mode:        strand.Transcription,
	Types:       []mutation.Type{mutation.SNV},
	Parallelism: 0,
}

// ComputeStrandedMatrices builds one count matrix per requested mutation
// type.  Samples are processed independently and in parallel within each
// type; rows are keyed by sample index, so results are identical at any
// parallelism.  A failure in any sample aborts the run with an error naming
// the sample.
//
// In replication mode a type with zero classifiable mutations across every
// sample is omitted from the result; in transcription mode it yields a
// zero-filled matrix.
func ComputeStrandedMatrices(cl Classifier, samples []mutation.Sample, ranges []strand.Range, opts Opts) (map[mutation.Type]*Matrix, error) {
	types := opts.Types
	if len(types) == 0 {
		types = []mutation.Type{mutation.SNV}
	}
	for _, t := range types {
		if t != mutation.SNV && t != mutation.DBS && t != mutation.Indel {
			return nil, errors.E(fmt.Sprintf("invalid mutation type %d", int(t)))
		}
	}
	if len(samples) == 0 {
		return nil, errors.E("no samples given")
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	assigner, err := strand.NewAssigner(ranges, opts.Mode)
	if err != nil {
		return nil, err
	}

	sampleNames := make([]string, len(samples))
	for i, s := range samples {
		sampleNames[i] = s.Name
	}

	if parallelism > len(samples) {
		parallelism = len(samples)
	}
	if parallelism < 1 {
		parallelism = 1
	}

	result := make(map[mutation.Type]*Matrix, len(types))
	for _, t := range types {
		t := t
		rows := make([][]float64, len(samples))
		// Fan out over samples: each job owns a contiguous slice of the
		// sample list and writes only its own row indices.
		err := traverse.Each(parallelism, func(jobIdx int) error {
			startIdx := (jobIdx * len(samples)) / parallelism
			endIdx := ((jobIdx + 1) * len(samples)) / parallelism
			for i := startIdx; i < endIdx; i++ {
				row, err := sampleRow(cl, assigner, samples[i], t, opts.Mode)
				if err != nil {
					return errors.E(err, "sample", samples[i].Name)
				}
				rows[i] = row
			}
			return nil
		})
		if err != nil {
			return nil, errors.E(err, "computing", t.String(), "matrix")
		}
		m := newMatrix(Categories(t, opts.Mode), sampleNames, rows)
		if opts.Mode == strand.Replication && m.empty() {
			// No classifiable mutations of this type anywhere in the
			// cohort; skip the type instead of emitting a degenerate
			// matrix.
			continue
		}
		result[t] = m
	}
	return result, nil
}

// ComputeStrandedMatrix is the single-type convenience wrapper.  opts.Types
// must resolve to exactly one type; in replication mode a degenerate type
// yields a nil matrix and no error.
func ComputeStrandedMatrix(cl Classifier, samples []mutation.Sample, ranges []strand.Range, opts Opts) (*Matrix, error) {
	types := opts.Types
	if len(types) == 0 {
		types = []mutation.Type{mutation.SNV}
		opts.Types = types
	}
	if len(types) != 1 {
		return nil, errors.E(fmt.Sprintf("exactly one mutation type required, got %d", len(types)))
	}
	ms, err := ComputeStrandedMatrices(cl, samples, ranges, opts)
	if err != nil {
		return nil, err
	}
	return ms[types[0]], nil
}

// sampleRow runs the per-sample pipeline for one (sample, type) pair:
// classify contexts, assign strands, count.  It touches no shared mutable
// state, so calls for different samples may run concurrently.
func sampleRow(cl Classifier, assigner *strand.Assigner, s mutation.Sample, t mutation.Type, mode strand.Mode) ([]float64, error) {
	muts := s.MutationsOfType(t)
	contexts, err := cl.Contexts(muts, t)
	if err != nil {
		return nil, err
	}
	if len(contexts) != len(muts) {
		return nil, errors.E(fmt.Sprintf("classifier returned %d contexts for %d mutations", len(contexts), len(muts)))
	}
	labels := assigner.Assign(muts)
	return countRow(contexts, labels, t, mode)
}
