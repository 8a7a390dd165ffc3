// Package classify derives context labels for mutations: trinucleotide
// substitution classes for SNVs, canonical doublet classes for DBSs and
// repeat/microhomology classes for indels.  Labels match the alphabets in
// package spectra.  Mutations whose context cannot be resolved (reference
// mismatch, invalid bases, chromosome edge) get the empty label and are
// excluded from counting rather than failing the sample.
package classify

import (
	"fmt"
	"strings"

	"github.com/grailbio/mutmatrix/mutation"
	"github.com/grailbio/mutmatrix/spectra"
	"github.com/vertgenlab/gonomics/dna"
)

// Reference looks up reference genome sequence.  start and end are
// zero-based half-open coordinates.  Implementations must be safe for
// concurrent use and should return uppercase sequence.
type Reference interface {
	Get(chrom string, start, end int) (string, error)
}

// ContextClassifier is the default Classifier over a reference genome.
type ContextClassifier struct {
	ref Reference
}

// New returns a classifier reading flanking sequence from ref.
func New(ref Reference) *ContextClassifier {
	return &ContextClassifier{ref: ref}
}

// Contexts implements spectra.Classifier.
func (c *ContextClassifier) Contexts(muts []mutation.Mutation, t mutation.Type) ([]string, error) {
	contexts := make([]string, len(muts))
	for i, m := range muts {
		switch t {
		case mutation.SNV:
			contexts[i] = c.snvContext(m)
		case mutation.DBS:
			contexts[i] = dbsContext(m)
		case mutation.Indel:
			contexts[i] = c.indelContext(m)
		}
	}
	return contexts, nil
}

// snvContext builds the trinucleotide class for a substitution, normalized
// so the reference base is a pyrimidine.  Returns "" when the reference
// disagrees with the record or the flanking window is unavailable.
func (c *ContextClassifier) snvContext(m mutation.Mutation) string {
	if m.Pos <= 1 || !validBases(m.Ref) || !validBases(m.Alt) {
		return ""
	}
	// One base either side of the variant, zero-based window.
	seq, err := c.ref.Get(m.Chrom, m.Pos-2, m.Pos+1)
	if err != nil || len(seq) != 3 {
		return ""
	}
	seq = strings.ToUpper(seq)
	if seq[1] != m.Ref[0] || !validBases(seq) {
		return ""
	}
	refBase, altBase := m.Ref, m.Alt
	if refBase == "A" || refBase == "G" {
		b := dna.StringToBases(seq)
		dna.ReverseComplement(b)
		seq = dna.BasesToString(b)
		refBase = complement(refBase)
		altBase = complement(altBase)
	}
	return string(seq[0]) + "[" + refBase + ">" + altBase + "]" + string(seq[2])
}

// dbsContext canonicalizes a doublet substitution.  No reference lookup is
// needed; the alleles determine the class.
func dbsContext(m mutation.Mutation) string {
	ref := strings.ToUpper(m.Ref)
	alt := strings.ToUpper(m.Alt)
	if !validBases(ref) || !validBases(alt) {
		return ""
	}
	label, ok := spectra.CanonicalDBS(ref, alt)
	if !ok {
		return ""
	}
	return label
}

// indelContext builds the ID-83 class for an insertion or deletion:
// single-base events by surrounding homopolymer length, longer events by
// the number of additional copies of the changed sequence adjacent in the
// reference, and deletions at non-repetitive sites by microhomology length.
func (c *ContextClassifier) indelContext(m mutation.Mutation) string {
	seq, isDel, ok := m.IndelChange()
	if !ok || len(seq) == 0 {
		return ""
	}
	seq = strings.ToUpper(seq)
	if !validBases(seq) {
		return ""
	}
	l := len(seq)

	// site is the zero-based coordinate where the changed sequence begins:
	// the first deleted base, or the base an insertion precedes.  The
	// anchor (the shorter allele) sits immediately before it.
	anchor := len(m.Alt)
	if !isDel {
		anchor = len(m.Ref)
	}
	site := m.Pos - 1 + anchor

	repeats := c.countRepeats(m.Chrom, site, seq, isDel)

	sizeClass := l
	if sizeClass > 5 {
		sizeClass = 5
	}
	n := repeats
	if n > 5 {
		n = 5
	}

	op := "Del"
	if !isDel {
		op = "Ins"
	}
	if l == 1 {
		base := seq
		if base == "A" || base == "G" {
			base = complement(base)
		}
		return fmt.Sprintf("1:%s:%s:%d", op, base, n)
	}
	if !isDel || repeats > 0 {
		return fmt.Sprintf("%d:%s:R:%d", sizeClass, op, n)
	}
	if mh := c.microhomology(m.Chrom, site, seq); mh > 0 {
		max := sizeClass - 1
		if sizeClass == 5 {
			max = 5
		}
		if mh > max {
			mh = max
		}
		return fmt.Sprintf("%d:Del:M:%d", sizeClass, mh)
	}
	return fmt.Sprintf("%d:Del:R:0", sizeClass)
}

// countRepeats counts additional whole copies of seq adjacent to the event
// site in the reference, on both sides, excluding the event's own copy for
// deletions.  The count saturates at 6 since classes cap at "5+".
func (c *ContextClassifier) countRepeats(chrom string, site int, seq string, isDel bool) int {
	l := len(seq)
	count := 0
	// Downstream: for deletions the deleted copy occupies [site, site+l),
	// so scanning starts past it; insertions sit between bases, so the
	// reference at site onward is all downstream context.
	next := site
	if isDel {
		next = site + l
	}
	for count < 6 {
		s, err := c.ref.Get(chrom, next, next+l)
		if err != nil || strings.ToUpper(s) != seq {
			break
		}
		count++
		next += l
	}
	// Upstream.
	prev := site - l
	for count < 6 && prev >= 0 {
		s, err := c.ref.Get(chrom, prev, prev+l)
		if err != nil || strings.ToUpper(s) != seq {
			break
		}
		count++
		prev -= l
	}
	return count
}

// microhomology returns the longest partial match (1..len(seq)-1) between
// the deleted sequence and its immediate flanks: a prefix of seq repeated
// just downstream of the deletion, or a suffix repeated just upstream.
func (c *ContextClassifier) microhomology(chrom string, site int, seq string) int {
	l := len(seq)
	best := 0
	if down, err := c.ref.Get(chrom, site+l, site+2*l-1); err == nil {
		down = strings.ToUpper(down)
		for k := l - 1; k > best; k-- {
			if k <= len(down) && seq[:k] == down[:k] {
				best = k
				break
			}
		}
	}
	if start := site - (l - 1); start >= 0 {
		if up, err := c.ref.Get(chrom, start, site); err == nil {
			up = strings.ToUpper(up)
			for k := l - 1; k > best; k-- {
				if k <= len(up) && seq[l-k:] == up[len(up)-k:] {
					best = k
					break
				}
			}
		}
	}
	return best
}

func validBases(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

func complement(s string) string {
	switch s {
	case "A":
		return "T"
	case "C":
		return "G"
	case "G":
		return "C"
	case "T":
		return "A"
	}
	return "N"
}

