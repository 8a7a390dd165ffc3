package spectra

import (
	"github.com/grailbio/mutmatrix/mutation"
	"github.com/grailbio/mutmatrix/strand"
	"github.com/pkg/errors"
)

// countRow tabulates one sample's mutations of one type into a row indexed
// by the fixed (context, strand) category ordering for (t, mode).  contexts
// and labels must be aligned per-mutation; a context of "" marks a mutation
// the classifier could not resolve (excluded from the row).  Every category
// slot is present in the result, zero-filled if unobserved, so rows from
// different samples are always concatenable.
func countRow(contexts []string, labels []strand.Label, t mutation.Type, mode strand.Mode) ([]float64, error) {
	if len(contexts) != len(labels) {
		return nil, errors.Errorf("misaligned inputs: %d contexts vs %d strand labels", len(contexts), len(labels))
	}
	ctxIdx := contextIndex(t)
	strandIdx := make(map[strand.Label]int)
	modeLabels := strand.Labels(mode)
	for i, l := range modeLabels {
		strandIdx[l] = i
	}
	row := make([]float64, len(ctxIdx)*len(modeLabels))
	for i, ctx := range contexts {
		if ctx == "" { // unresolvable context; not counted
			continue
		}
		ci, ok := ctxIdx[ctx]
		if !ok {
			return nil, errors.Errorf("context %q is not in the %s alphabet", ctx, t)
		}
		si, ok := strandIdx[labels[i]]
		if !ok {
			return nil, errors.Errorf("strand label %q is not valid in %s mode", labels[i], mode)
		}
		row[ci*len(modeLabels)+si]++
	}
	return row, nil
}
