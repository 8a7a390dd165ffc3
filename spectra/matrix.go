package spectra

import (
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is one mutation type's count matrix: rows are (context, strand)
// categories in the fixed ordering, columns are samples in input order.
// Matrices are never mutated after assembly.
type Matrix struct {
	Categories []string
	Samples    []string
	counts     *mat.Dense
}

// newMatrix stacks one row per sample and transposes, so the stored
// orientation is categories x samples.
func newMatrix(categories, samples []string, sampleRows [][]float64) *Matrix {
	counts := mat.NewDense(len(categories), len(samples), nil)
	for j, row := range sampleRows {
		counts.SetCol(j, row)
	}
	return &Matrix{Categories: categories, Samples: samples, counts: counts}
}

// At returns the count for category row i and sample column j.
func (m *Matrix) At(i, j int) int { return int(m.counts.At(i, j)) }

// Dense returns the underlying matrix.  Callers must treat it as read-only.
func (m *Matrix) Dense() *mat.Dense { return m.counts }

// SampleTotal returns the column sum for sample j: the number of that
// sample's classified mutations with a resolvable context.
func (m *Matrix) SampleTotal(j int) int {
	col := make([]float64, len(m.Categories))
	mat.Col(col, j, m.counts)
	return int(floats.Sum(col))
}

// empty reports whether every cell is zero.
func (m *Matrix) empty() bool {
	for j := range m.Samples {
		if m.SampleTotal(j) != 0 {
			return false
		}
	}
	return true
}

// WriteTSV writes the matrix as a TSV with a MutationType header column
// followed by one column per sample.
func (m *Matrix) WriteTSV(w io.Writer) error {
	out := tsv.NewWriter(w)
	out.WriteString("MutationType")
	for _, s := range m.Samples {
		out.WriteString(s)
	}
	if err := out.EndLine(); err != nil {
		return err
	}
	for i, cat := range m.Categories {
		out.WriteString(cat)
		for j := range m.Samples {
			out.WriteUint32(uint32(m.At(i, j)))
		}
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}

// WriteTSVFile writes the matrix to path, gzip-compressed when the path
// ends in .gz.
func (m *Matrix) WriteTSVFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()
	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(f)
		defer func() {
			if e := gz.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = gz
	}
	return m.WriteTSV(w)
}
