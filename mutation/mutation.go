// Package mutation defines the mutation records consumed by the
// strand-stratified counting pipeline: per-sample call sets, the closed set
// of mutation types being tabulated, and the small amount of allele
// arithmetic (type detection, pyrimidine orientation, indel change
// extraction) shared by the classifier and the strand assigner.
package mutation

import (
	"strings"

	"github.com/pkg/errors"
)

// Type identifies one of the mutation classes being counted.  The set is
// closed; anything outside it is a configuration error at the boundary.
type Type int

const (
	SNV Type = iota
	DBS
	Indel
	numTypes
)

// AllTypes lists every supported mutation type in canonical output order.
var AllTypes = []Type{SNV, DBS, Indel}

// String returns the lowercase name used in flags and output file names.
func (t Type) String() string {
	switch t {
	case SNV:
		return "snv"
	case DBS:
		return "dbs"
	case Indel:
		return "indel"
	}
	return "invalid"
}

// ParseType converts a type name to a Type.  Only "snv", "dbs" and "indel"
// are recognized.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "snv":
		return SNV, nil
	case "dbs":
		return DBS, nil
	case "indel":
		return Indel, nil
	}
	return 0, errors.Errorf("unrecognized mutation type %q (want snv, dbs or indel)", s)
}

// ParseTypes converts a comma-separated list of type names, or "all", to a
// deduplicated Type slice preserving canonical order for "all" and input
// order otherwise.
func ParseTypes(s string) ([]Type, error) {
	if strings.ToLower(strings.TrimSpace(s)) == "all" {
		return append([]Type{}, AllTypes...), nil
	}
	var (
		types []Type
		seen  [numTypes]bool
	)
	for _, field := range strings.Split(s, ",") {
		t, err := ParseType(field)
		if err != nil {
			return nil, err
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	if len(types) == 0 {
		return nil, errors.Errorf("no mutation types in %q", s)
	}
	return types, nil
}

// Mutation is a single called variant.  Pos is one-based, as in VCF.  Ref
// and Alt are the reference and alternate alleles on the forward genomic
// strand.  Records are read-only once constructed.
type Mutation struct {
	Chrom string
	Pos   int
	Ref   string
	Alt   string
}

// DetectType derives the mutation type from the allele lengths.  ok is
// false for records outside the closed set (e.g. MNVs longer than two
// bases, or symbolic alleles).
func (m Mutation) DetectType() (t Type, ok bool) {
	switch {
	case len(m.Ref) == 1 && len(m.Alt) == 1:
		if m.Ref == m.Alt {
			return 0, false
		}
		return SNV, true
	case len(m.Ref) == 2 && len(m.Alt) == 2:
		if m.Ref[0] == m.Alt[0] || m.Ref[1] == m.Alt[1] {
			// Only one of the two bases changed; not a true doublet.
			return 0, false
		}
		return DBS, true
	case len(m.Ref) != len(m.Alt):
		if _, _, ok := m.IndelChange(); !ok {
			return 0, false
		}
		return Indel, true
	}
	return 0, false
}

// IndelChange returns the inserted or deleted sequence for an
// anchor-prefixed indel record (VCF style: Ref "AC" / Alt "A" deletes "C").
// deletion is true for deletions.  ok is false when neither allele is a
// prefix of the other.
func (m Mutation) IndelChange() (seq string, deletion bool, ok bool) {
	switch {
	case len(m.Ref) > len(m.Alt) && strings.HasPrefix(m.Ref, m.Alt):
		return m.Ref[len(m.Alt):], true, true
	case len(m.Alt) > len(m.Ref) && strings.HasPrefix(m.Alt, m.Ref):
		return m.Alt[len(m.Ref):], false, true
	}
	return "", false, false
}

// PyrimidineStrand reports the genomic strand carrying the pyrimidine of
// the base that determines the mutation's normalized representation: the
// reference base for substitutions, the first changed base for indels.
// Mutations with a pyrimidine (C/T) determining base are '+', purines are
// '-'.  This is the "alteration direction" matched against a gene range's
// coding strand during transcription-mode assignment.
func (m Mutation) PyrimidineStrand() byte {
	var b byte
	switch {
	case len(m.Ref) >= 1 && len(m.Ref) == len(m.Alt):
		b = m.Ref[0]
	default:
		seq, _, ok := m.IndelChange()
		if !ok || len(seq) == 0 {
			return '+'
		}
		b = seq[0]
	}
	switch b {
	case 'C', 'T', 'c', 't':
		return '+'
	case 'A', 'G', 'a', 'g':
		return '-'
	}
	return '+'
}

// Sample is one named mutation call set.  Mutations keep their input order.
type Sample struct {
	Name      string
	Mutations []Mutation
}

// MutationsOfType returns the sample's mutations of the given type, in
// input order.  The result is never nil, so an empty call set flows through
// classification and strand assignment as an empty, typed sequence.
func (s Sample) MutationsOfType(t Type) []Mutation {
	muts := []Mutation{}
	for _, m := range s.Mutations {
		if mt, ok := m.DetectType(); ok && mt == t {
			muts = append(muts, m)
		}
	}
	return muts
}
