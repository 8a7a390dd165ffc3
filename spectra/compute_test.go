package spectra

import (
	"fmt"
	"strings"
	"testing"

	"github.com/grailbio/mutmatrix/mutation"
	"github.com/grailbio/mutmatrix/strand"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"gonum.org/v1/gonum/mat"
)

// stubClassifier maps each mutation to a fixed context by position, with ""
// (unresolvable) for positions it does not know.
type stubClassifier struct {
	byPos map[int]string
}

func (c stubClassifier) Contexts(muts []mutation.Mutation, t mutation.Type) ([]string, error) {
	out := make([]string, len(muts))
	for i, m := range muts {
		out[i] = c.byPos[m.Pos]
	}
	return out, nil
}

// failingClassifier fails for one sample's mutations.
type failingClassifier struct {
	stub    stubClassifier
	failPos int
}

func (c failingClassifier) Contexts(muts []mutation.Mutation, t mutation.Type) ([]string, error) {
	for _, m := range muts {
		if m.Pos == c.failPos {
			return nil, fmt.Errorf("no context for position %d", m.Pos)
		}
	}
	return c.stub.Contexts(muts, t)
}

var testRanges = []strand.Range{
	{Chrom: "chr1", Start: 0, End: 1000, Strand: '+'},
	{Chrom: "chr1", Start: 2000, End: 3000, Strand: '-'},
}

func testSamples() []mutation.Sample {
	return []mutation.Sample{
		{Name: "s1", Mutations: []mutation.Mutation{
			// Pyrimidine SNV on the '+' gene: transcribed.
			{Chrom: "chr1", Pos: 100, Ref: "C", Alt: "A"},
			// Purine SNV on the '+' gene: untranscribed.
			{Chrom: "chr1", Pos: 200, Ref: "G", Alt: "T"},
			// SNV outside every range: unknown.
			{Chrom: "chr1", Pos: 1500, Ref: "C", Alt: "T"},
		}},
		{Name: "s2", Mutations: []mutation.Mutation{
			// Pyrimidine SNV on the '-' gene: untranscribed.
			{Chrom: "chr1", Pos: 2500, Ref: "T", Alt: "G"},
			// A doublet, so the SNV matrix ignores it.
			{Chrom: "chr1", Pos: 300, Ref: "CT", Alt: "AA"},
		}},
		{Name: "s3", Mutations: nil}, // zero mutations of every type
	}
}

func testStub() stubClassifier {
	return stubClassifier{byPos: map[int]string{
		100:  "A[C>A]A",
		200:  "A[C>A]T", // classifier normalizes purine refs
		1500: "T[C>T]G",
		2500: "C[T>G]C",
		300:  "CT>AA",
	}}
}

func computeSNV(t *testing.T, parallelism int) *Matrix {
	t.Helper()
	opts := Opts{Mode: strand.Transcription, Types: []mutation.Type{mutation.SNV}, Parallelism: parallelism}
	m, err := ComputeStrandedMatrix(testStub(), testSamples(), testRanges, opts)
	assert.NoError(t, err)
	assert.NotNil(t, m)
	return m
}

func catIndex(t *testing.T, m *Matrix, cat string) int {
	t.Helper()
	for i, c := range m.Categories {
		if c == cat {
			return i
		}
	}
	t.Fatalf("category %s not found", cat)
	return -1
}

func TestComputeTranscription(t *testing.T) {
	m := computeSNV(t, 1)
	expect.EQ(t, m.Samples, []string{"s1", "s2", "s3"})
	expect.EQ(t, len(m.Categories), 96*3)

	expect.EQ(t, m.At(catIndex(t, m, "A[C>A]A_transcribed"), 0), 1)
	expect.EQ(t, m.At(catIndex(t, m, "A[C>A]T_untranscribed"), 0), 1)
	expect.EQ(t, m.At(catIndex(t, m, "T[C>T]G_unknown"), 0), 1)
	expect.EQ(t, m.At(catIndex(t, m, "C[T>G]C_untranscribed"), 1), 1)

	// Column sums reconcile with per-sample classified-mutation counts;
	// the unknown-strand mutation is counted, not dropped.
	expect.EQ(t, m.SampleTotal(0), 3)
	expect.EQ(t, m.SampleTotal(1), 1)
	expect.EQ(t, m.SampleTotal(2), 0)
}

func TestComputeParallelismInvariance(t *testing.T) {
	m1 := computeSNV(t, 1)
	m4 := computeSNV(t, 4)
	m0 := computeSNV(t, 0) // auto-detect
	expect.EQ(t, m1.Categories, m4.Categories)
	expect.EQ(t, m1.Samples, m4.Samples)
	expect.True(t, mat.Equal(m1.Dense(), m4.Dense()))
	expect.True(t, mat.Equal(m1.Dense(), m0.Dense()))
}

func TestComputeAllTypesTranscription(t *testing.T) {
	opts := Opts{Mode: strand.Transcription, Types: mutation.AllTypes, Parallelism: 2}
	ms, err := ComputeStrandedMatrices(testStub(), testSamples(), testRanges, opts)
	assert.NoError(t, err)
	// Transcription mode keeps degenerate types as zero-filled matrices.
	expect.EQ(t, len(ms), 3)
	expect.EQ(t, ms[mutation.DBS].SampleTotal(1), 1)
	for j := range ms[mutation.Indel].Samples {
		expect.EQ(t, ms[mutation.Indel].SampleTotal(j), 0)
	}
}

func TestComputeReplicationSkipsDegenerateTypes(t *testing.T) {
	ranges := []strand.Range{
		{Chrom: "chr1", Start: 0, End: 1000, Direction: strand.Left},
		{Chrom: "chr1", Start: 2000, End: 3000, Direction: strand.Right},
	}
	opts := Opts{Mode: strand.Replication, Types: mutation.AllTypes, Parallelism: 2}
	ms, err := ComputeStrandedMatrices(testStub(), testSamples(), ranges, opts)
	assert.NoError(t, err)
	// No indels anywhere in the cohort: the type is omitted entirely.
	_, ok := ms[mutation.Indel]
	expect.False(t, ok)
	expect.EQ(t, len(ms), 2)

	m := ms[mutation.SNV]
	expect.EQ(t, m.At(catIndex(t, m, "A[C>A]A_left"), 0), 1)
	expect.EQ(t, m.At(catIndex(t, m, "C[T>G]C_right"), 1), 1)
	expect.EQ(t, m.At(catIndex(t, m, "T[C>T]G_unknown"), 0), 1)
}

func TestComputeFailFastNamesSample(t *testing.T) {
	cl := failingClassifier{stub: testStub(), failPos: 2500}
	opts := Opts{Mode: strand.Transcription, Types: []mutation.Type{mutation.SNV}, Parallelism: 3}
	_, err := ComputeStrandedMatrices(cl, testSamples(), testRanges, opts)
	expect.True(t, err != nil)
	expect.True(t, strings.Contains(err.Error(), "s2"), "error should name the failing sample: %v", err)
}

func TestComputeNoSamples(t *testing.T) {
	_, err := ComputeStrandedMatrices(testStub(), nil, testRanges, DefaultOpts)
	expect.True(t, err != nil)
}

func TestComputeStrandedMatrixSingleType(t *testing.T) {
	_, err := ComputeStrandedMatrix(testStub(), testSamples(), testRanges, Opts{
		Mode:  strand.Transcription,
		Types: mutation.AllTypes,
	})
	expect.True(t, err != nil) // more than one type

	// Degenerate type in replication mode: nil matrix, no error.
	ranges := []strand.Range{{Chrom: "chr1", Start: 0, End: 1000, Direction: strand.Left}}
	m, err := ComputeStrandedMatrix(testStub(), testSamples(), ranges, Opts{
		Mode:  strand.Replication,
		Types: []mutation.Type{mutation.Indel},
	})
	assert.NoError(t, err)
	expect.Nil(t, m)
}

func TestComputeDefaultTypes(t *testing.T) {
	ms, err := ComputeStrandedMatrices(testStub(), testSamples(), testRanges, Opts{Mode: strand.Transcription})
	assert.NoError(t, err)
	expect.EQ(t, len(ms), 1)
	_, ok := ms[mutation.SNV]
	expect.True(t, ok)
}
