// Package strand assigns each mutation a strand label under one of two
// mutually exclusive annotation schemes: transcription (gene bodies tagged
// +/-) or replication (intervals tagged left/right).  Overlap queries run
// against per-chromosome interval trees; lookups are read-only after
// construction, so one Assigner can be shared by concurrent workers.
package strand

import (
	"strings"

	"github.com/biogo/store/interval"
	"github.com/grailbio/mutmatrix/mutation"
	"github.com/pkg/errors"
)

// Mode selects the strand-annotation scheme for a run.
type Mode int

const (
	Transcription Mode = iota
	Replication
)

// String returns the lowercase mode name used in flags.
func (m Mode) String() string {
	switch m {
	case Transcription:
		return "transcription"
	case Replication:
		return "replication"
	}
	return "invalid"
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transcription":
		return Transcription, nil
	case "replication":
		return Replication, nil
	}
	return 0, errors.Errorf("unrecognized strand mode %q (want transcription or replication)", s)
}

// Label is a mutation's assigned strand.  Exactly one label per mutation;
// mutations outside every annotated range get Unknown.
type Label uint8

const (
	Transcribed Label = iota
	Untranscribed
	Left
	Right
	Unknown
)

// String returns the label name used in matrix category rows.
func (l Label) String() string {
	switch l {
	case Transcribed:
		return "transcribed"
	case Untranscribed:
		return "untranscribed"
	case Left:
		return "left"
	case Right:
		return "right"
	case Unknown:
		return "unknown"
	}
	return "invalid"
}

// Labels returns the labels a mode can assign, in the fixed order used for
// matrix categories.  Unknown is part of the ordering, so mutations outside
// annotated ranges are counted rather than dropped.
func Labels(m Mode) []Label {
	if m == Replication {
		return []Label{Left, Right, Unknown}
	}
	return []Label{Transcribed, Untranscribed, Unknown}
}

// Range is one genomic annotation interval, zero-based half-open.  In
// transcription mode Strand holds the range's coding strand ('+' or '-');
// in replication mode Direction holds Left or Right.
type Range struct {
	Chrom      string
	Start, End int
	Strand     byte
	Direction  Label
}

// entry is a Range in an interval tree.  The id records input order and
// breaks ties between overlapping ranges with equal starts.
type entry struct {
	r  Range
	id uintptr
}

func (e entry) Overlap(b interval.IntRange) bool {
	return e.r.Start < b.End && b.Start < e.r.End
}

func (e entry) Range() interval.IntRange { return interval.IntRange{Start: e.r.Start, End: e.r.End} }

func (e entry) ID() uintptr { return e.id }

// query is a point/span probe for tree lookups.
type query struct {
	start, end int
}

func (q query) Overlap(b interval.IntRange) bool {
	return q.start < b.End && b.Start < q.end
}

func (q query) Range() interval.IntRange { return interval.IntRange{Start: q.start, End: q.end} }

func (q query) ID() uintptr { return 0 }

// Assigner maps mutations to strand labels for one mode and one annotation
// set.  Safe for concurrent use once built.
type Assigner struct {
	mode  Mode
	trees map[string]*interval.IntTree
}

// NewAssigner indexes the given ranges for the given mode.  Ranges may
// overlap; when a mutation overlaps several, the range with the lowest
// start wins, ties broken by input order.
func NewAssigner(ranges []Range, mode Mode) (*Assigner, error) {
	a := &Assigner{mode: mode, trees: make(map[string]*interval.IntTree)}
	for i, r := range ranges {
		if r.End <= r.Start {
			return nil, errors.Errorf("invalid range %s:%d-%d", r.Chrom, r.Start, r.End)
		}
		if mode == Transcription && r.Strand != '+' && r.Strand != '-' {
			return nil, errors.Errorf("range %s:%d-%d: strand must be + or -, got %q", r.Chrom, r.Start, r.End, string(r.Strand))
		}
		if mode == Replication && r.Direction != Left && r.Direction != Right {
			return nil, errors.Errorf("range %s:%d-%d: direction must be left or right", r.Chrom, r.Start, r.End)
		}
		t := a.trees[r.Chrom]
		if t == nil {
			t = &interval.IntTree{}
			a.trees[r.Chrom] = t
		}
		if err := t.Insert(entry{r: r, id: uintptr(i)}, false); err != nil {
			return nil, errors.Wrapf(err, "indexing range %s:%d-%d", r.Chrom, r.Start, r.End)
		}
	}
	return a, nil
}

// Assign labels each mutation, preserving input length and order.  An empty
// input yields an empty (non-nil) label sequence.
func (a *Assigner) Assign(muts []mutation.Mutation) []Label {
	labels := make([]Label, len(muts))
	for i, m := range muts {
		labels[i] = a.assignOne(m)
	}
	return labels
}

func (a *Assigner) assignOne(m mutation.Mutation) Label {
	t := a.trees[m.Chrom]
	if t == nil {
		return Unknown
	}
	start := m.Pos - 1 // to zero-based
	span := len(m.Ref)
	if span < 1 {
		span = 1
	}
	hits := t.Get(query{start: start, end: start + span})
	if len(hits) == 0 {
		return Unknown
	}
	best := hits[0].(entry)
	for _, h := range hits[1:] {
		e := h.(entry)
		if e.r.Start < best.r.Start || (e.r.Start == best.r.Start && e.id < best.id) {
			best = e
		}
	}
	if a.mode == Replication {
		return best.r.Direction
	}
	// A mutation whose alteration direction matches the gene's coding
	// strand is counted as transcribed, otherwise untranscribed.
	if m.PyrimidineStrand() == best.r.Strand {
		return Transcribed
	}
	return Untranscribed
}
