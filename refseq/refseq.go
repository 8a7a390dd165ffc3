// Package refseq provides in-memory reference genome sequence lookup for
// context classification.  It parses FASTA data (optionally gzipped) and
// serves uppercase subsequences by zero-based half-open coordinates.
//
// Sequence names are the characters after '>' up to the first space; any
// trailing description is ignored.
package refseq

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Genome holds a reference genome in memory.  Get is safe for concurrent
// use; the sequence data is read-only after New returns.
type Genome struct {
	seqs     map[string]string
	seqNames []string
}

// New parses FASTA data from r.
func New(r io.Reader) (*Genome, error) {
	g := &Genome{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1024*1024*256)
	var name string
	var seq strings.Builder
	flush := func() error {
		if seq.Len() == 0 {
			return nil
		}
		if name == "" {
			return errors.New("malformed FASTA data: sequence before first header")
		}
		g.seqs[name] = strings.ToUpper(seq.String())
		g.seqNames = append(g.seqNames, name)
		seq.Reset()
		return nil
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			name = strings.SplitN(line[1:], " ", 2)[0]
			continue
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading FASTA data")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(g.seqNames) == 0 {
		return nil, errors.New("empty FASTA data")
	}
	return g, nil
}

// Open reads a FASTA file, transparently decompressing .gz paths.
func Open(path string) (g *Genome, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "decompressing %s", path)
		}
		defer gz.Close() // nolint: errcheck
		r = gz
	}
	return New(r)
}

// Get returns the uppercase subsequence [start, end) of the named sequence.
func (g *Genome) Get(chrom string, start, end int) (string, error) {
	s, ok := g.seqs[chrom]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", chrom)
	}
	if start < 0 || end <= start || end > len(s) {
		return "", errors.Errorf("invalid query range %d-%d for sequence %s with length %d",
			start, end, chrom, len(s))
	}
	return s[start:end], nil
}

// SeqNames returns the sequence names in file order.
func (g *Genome) SeqNames() []string {
	return g.seqNames
}
