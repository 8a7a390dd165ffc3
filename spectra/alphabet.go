// Package spectra computes strand-stratified mutation-count matrices: for
// each requested mutation type it tabulates, per sample, how many mutations
// of each context class fall on each strand, and assembles the per-sample
// rows into a categories-by-samples matrix.
package spectra

import (
	"fmt"

	"github.com/grailbio/mutmatrix/mutation"
	"github.com/grailbio/mutmatrix/strand"
)

// The context alphabets below are the standard signature-analysis category
// sets: 96 trinucleotide substitution classes for SNVs, 78 canonical
// doublet classes for DBSs and 83 indel classes.  Orderings are fixed so
// matrices from different runs and samples are always structurally
// comparable.

const bases = "ACGT"

// sbsSubstitutions are the six pyrimidine-normalized single-base changes,
// in canonical order.
var sbsSubstitutions = []string{"C>A", "C>G", "C>T", "T>A", "T>C", "T>G"}

var (
	sbsContexts = buildSBSContexts()
	dbsContexts = buildDBSContexts()
	idContexts  = buildIDContexts()

	// dbsCanonical maps every valid doublet substitution, in either
	// orientation, to its canonical DBS-78 label.
	dbsCanonical = buildDBSCanonical()
)

func buildSBSContexts() []string {
	ctxs := make([]string, 0, 96)
	for _, sub := range sbsSubstitutions {
		for i := 0; i < len(bases); i++ {
			for j := 0; j < len(bases); j++ {
				ctxs = append(ctxs, fmt.Sprintf("%c[%s]%c", bases[i], sub, bases[j]))
			}
		}
	}
	return ctxs
}

// dbsRefs are the ten canonical reference doublets.  For a palindromic
// reference (equal to its own reverse complement) only one of each
// alt/reverse-complement-alt pair is canonical.
var dbsRefs = []string{"AC", "AT", "CC", "CG", "CT", "GC", "TA", "TC", "TG", "TT"}

func buildDBSContexts() []string {
	ctxs := make([]string, 0, 78)
	for _, ref := range dbsRefs {
		palindromic := ref == revComp2(ref)
		seen := make(map[string]bool)
		for i := 0; i < len(bases); i++ {
			for j := 0; j < len(bases); j++ {
				alt := string(bases[i]) + string(bases[j])
				if alt[0] == ref[0] || alt[1] == ref[1] {
					continue
				}
				if palindromic && seen[revComp2(alt)] {
					continue
				}
				seen[alt] = true
				ctxs = append(ctxs, ref+">"+alt)
			}
		}
	}
	return ctxs
}

func buildDBSCanonical() map[string]string {
	canon := make(map[string]string)
	for _, label := range buildDBSContexts() {
		ref, alt := label[:2], label[3:]
		canon[label] = label
		canon[revComp2(ref)+">"+revComp2(alt)] = label
	}
	return canon
}

// CanonicalDBS returns the DBS-78 label for a doublet substitution given in
// either orientation, or ok=false for alleles outside the alphabet.
func CanonicalDBS(ref, alt string) (label string, ok bool) {
	label, ok = dbsCanonical[ref+">"+alt]
	return label, ok
}

func revComp2(s string) string {
	comp := func(b byte) byte {
		switch b {
		case 'A':
			return 'T'
		case 'C':
			return 'G'
		case 'G':
			return 'C'
		case 'T':
			return 'A'
		}
		return 'N'
	}
	return string([]byte{comp(s[1]), comp(s[0])})
}

// buildIDContexts generates the ID-83 alphabet: single-base deletions and
// insertions by homopolymer length, longer events by repeat-unit count, and
// microhomology classes for deletions at non-repetitive sites.
func buildIDContexts() []string {
	ctxs := make([]string, 0, 83)
	for _, op := range []string{"Del", "Ins"} {
		for _, b := range []string{"C", "T"} {
			for n := 0; n <= 5; n++ {
				ctxs = append(ctxs, fmt.Sprintf("1:%s:%s:%d", op, b, n))
			}
		}
	}
	for _, op := range []string{"Del", "Ins"} {
		for l := 2; l <= 5; l++ {
			for n := 0; n <= 5; n++ {
				ctxs = append(ctxs, fmt.Sprintf("%d:%s:R:%d", l, op, n))
			}
		}
	}
	for l := 2; l <= 5; l++ {
		max := l - 1
		if l == 5 {
			max = 5
		}
		for m := 1; m <= max; m++ {
			ctxs = append(ctxs, fmt.Sprintf("%d:Del:M:%d", l, m))
		}
	}
	return ctxs
}

// Contexts returns the fixed context alphabet for a mutation type.  Callers
// must not modify the returned slice.
func Contexts(t mutation.Type) []string {
	switch t {
	case mutation.SNV:
		return sbsContexts
	case mutation.DBS:
		return dbsContexts
	case mutation.Indel:
		return idContexts
	}
	return nil
}

// Categories returns the fixed (context, strand) category labels for a
// mutation type and mode: every context crossed with every strand label,
// context varying slower.  Category label format is "<context>_<strand>".
func Categories(t mutation.Type, mode strand.Mode) []string {
	ctxs := Contexts(t)
	labels := strand.Labels(mode)
	cats := make([]string, 0, len(ctxs)*len(labels))
	for _, ctx := range ctxs {
		for _, l := range labels {
			cats = append(cats, ctx+"_"+l.String())
		}
	}
	return cats
}

// contextIndex returns a lookup from context label to alphabet position.
func contextIndex(t mutation.Type) map[string]int {
	ctxs := Contexts(t)
	idx := make(map[string]int, len(ctxs))
	for i, c := range ctxs {
		idx[c] = i
	}
	return idx
}
