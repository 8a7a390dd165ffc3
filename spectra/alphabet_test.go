package spectra

import (
	"testing"

	"github.com/grailbio/mutmatrix/mutation"
	"github.com/grailbio/mutmatrix/strand"
	"github.com/grailbio/testutil/expect"
)

func TestContextAlphabetSizes(t *testing.T) {
	expect.EQ(t, len(Contexts(mutation.SNV)), 96)
	expect.EQ(t, len(Contexts(mutation.DBS)), 78)
	expect.EQ(t, len(Contexts(mutation.Indel)), 83)
}

func TestSBSContextOrder(t *testing.T) {
	ctxs := Contexts(mutation.SNV)
	// Substitution varies slowest, then 5' base, then 3' base.
	expect.EQ(t, ctxs[0], "A[C>A]A")
	expect.EQ(t, ctxs[1], "A[C>A]C")
	expect.EQ(t, ctxs[4], "C[C>A]A")
	expect.EQ(t, ctxs[16], "A[C>G]A")
	expect.EQ(t, ctxs[95], "T[T>G]T")

	seen := make(map[string]bool)
	for _, c := range ctxs {
		expect.False(t, seen[c], "duplicate context %s", c)
		seen[c] = true
	}
}

func TestDBSContexts(t *testing.T) {
	ctxs := Contexts(mutation.DBS)
	seen := make(map[string]bool)
	perRef := make(map[string]int)
	for _, c := range ctxs {
		expect.False(t, seen[c], "duplicate context %s", c)
		seen[c] = true
		perRef[c[:2]]++
	}
	// Palindromic reference doublets keep one representative per
	// complement pair; the others keep all nine alts.
	for _, ref := range []string{"AT", "CG", "GC", "TA"} {
		expect.EQ(t, perRef[ref], 6, "ref %s", ref)
	}
	for _, ref := range []string{"AC", "CC", "CT", "TC", "TG", "TT"} {
		expect.EQ(t, perRef[ref], 9, "ref %s", ref)
	}
}

func TestCanonicalDBS(t *testing.T) {
	// Already canonical.
	label, ok := CanonicalDBS("AC", "GT")
	expect.True(t, ok)
	expect.EQ(t, label, "AC>GT")

	// GT>AC is the reverse complement of AC>GT.
	label, ok = CanonicalDBS("GT", "AC")
	expect.True(t, ok)
	expect.EQ(t, label, "AC>GT")

	// Palindromic reference: alt and its reverse complement share a class.
	l1, ok1 := CanonicalDBS("AT", "CA")
	l2, ok2 := CanonicalDBS("AT", "TG")
	expect.True(t, ok1 && ok2)
	expect.EQ(t, l1, l2)

	_, ok = CanonicalDBS("NN", "AC")
	expect.False(t, ok)
}

func TestIDContexts(t *testing.T) {
	ctxs := Contexts(mutation.Indel)
	expect.EQ(t, ctxs[0], "1:Del:C:0")
	expect.EQ(t, ctxs[6], "1:Del:T:0")
	expect.EQ(t, ctxs[12], "1:Ins:C:0")
	expect.EQ(t, ctxs[23], "1:Ins:T:5")
	expect.EQ(t, ctxs[24], "2:Del:R:0")
	expect.EQ(t, ctxs[48], "2:Ins:R:0")
	expect.EQ(t, ctxs[72], "2:Del:M:1")
	expect.EQ(t, ctxs[82], "5:Del:M:5")
}

func TestCategories(t *testing.T) {
	cats := Categories(mutation.SNV, strand.Transcription)
	expect.EQ(t, len(cats), 96*3)
	// Context varies slower than strand.
	expect.EQ(t, cats[0], "A[C>A]A_transcribed")
	expect.EQ(t, cats[1], "A[C>A]A_untranscribed")
	expect.EQ(t, cats[2], "A[C>A]A_unknown")
	expect.EQ(t, cats[3], "A[C>A]C_transcribed")

	repl := Categories(mutation.DBS, strand.Replication)
	expect.EQ(t, len(repl), 78*3)
	expect.EQ(t, repl[0], "AC>CA_left")
	expect.EQ(t, repl[1], "AC>CA_right")
	expect.EQ(t, repl[2], "AC>CA_unknown")
}

func TestCategoriesDeterministic(t *testing.T) {
	for _, typ := range mutation.AllTypes {
		a := Categories(typ, strand.Transcription)
		b := Categories(typ, strand.Transcription)
		expect.EQ(t, a, b)
	}
}
