// Package variants loads the pipeline's external inputs: per-sample
// mutation call sets from VCF files, strand-annotation ranges from BED
// files and reference sequence from indexed FASTA.  It contains no counting
// logic; everything here is format adaptation.
package variants

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/grailbio/mutmatrix/mutation"
	"github.com/grailbio/mutmatrix/strand"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/fasta"
	"github.com/vertgenlab/gonomics/vcf"
)

// ReadVCF loads the biallelic mutation records from one VCF file (.vcf or
// .vcf.gz) in file order.  Multiallelic records are skipped; they cannot be
// assigned a single context class.
func ReadVCF(path string) ([]mutation.Mutation, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	records, _ := vcf.GoReadToChan(path)
	muts := []mutation.Mutation{}
	for v := range records {
		if !vcf.IsBiallelic(v) {
			continue
		}
		muts = append(muts, mutation.Mutation{
			Chrom: v.Chr,
			Pos:   v.Pos,
			Ref:   strings.ToUpper(v.Ref),
			Alt:   strings.ToUpper(v.Alt[0]),
		})
	}
	return muts, nil
}

// LoadSamples reads one VCF per sample, naming each sample after its file
// (base name minus .vcf/.vcf.gz).  Sample order follows path order.
func LoadSamples(paths []string) ([]mutation.Sample, error) {
	samples := make([]mutation.Sample, 0, len(paths))
	for _, p := range paths {
		muts, err := ReadVCF(p)
		if err != nil {
			return nil, err
		}
		samples = append(samples, mutation.Sample{Name: SampleName(p), Mutations: muts})
	}
	return samples, nil
}

// SampleName derives a sample name from a VCF path.
func SampleName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".vcf")
	return name
}

// ReadRanges loads strand-annotation ranges from a BED file (.bed or
// .bed.gz).  In transcription mode the file must carry a +/- strand in
// column 6 (BED6).  In replication mode column 4 must be the replication
// direction, "left" or "right".  Coordinates are zero-based half-open, as
// in BED.
func ReadRanges(path string, mode strand.Mode) (ranges []strand.Range, err error) {
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

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		fields := strings.Fields(line)
		rng, err := parseRange(fields, mode)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, lineNum)
		}
		ranges = append(ranges, rng)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return ranges, nil
}

func parseRange(fields []string, mode strand.Mode) (strand.Range, error) {
	var rng strand.Range
	if len(fields) < 3 {
		return rng, errors.Errorf("want at least 3 BED columns, got %d", len(fields))
	}
	start, err := strconv.Atoi(fields[1])
	if err != nil {
		return rng, errors.Wrap(err, "parsing start")
	}
	end, err := strconv.Atoi(fields[2])
	if err != nil {
		return rng, errors.Wrap(err, "parsing end")
	}
	rng = strand.Range{Chrom: fields[0], Start: start, End: end}
	switch mode {
	case strand.Transcription:
		if len(fields) < 6 {
			return rng, errors.Errorf("transcription mode needs a BED6 strand column, got %d columns", len(fields))
		}
		if fields[5] != "+" && fields[5] != "-" {
			return rng, errors.Errorf("invalid strand %q", fields[5])
		}
		rng.Strand = fields[5][0]
	case strand.Replication:
		if len(fields) < 4 {
			return rng, errors.Errorf("replication mode needs a direction in BED column 4, got %d columns", len(fields))
		}
		switch strings.ToLower(fields[3]) {
		case "left":
			rng.Direction = strand.Left
		case "right":
			rng.Direction = strand.Right
		default:
			return rng, errors.Errorf("invalid replication direction %q (want left or right)", fields[3])
		}
	}
	return rng, nil
}

// SeekerReference adapts a gonomics indexed-FASTA seeker to the reference
// lookup interface consumed by package classify.  Seeks share one file
// handle, so lookups are serialized with a mutex.
type SeekerReference struct {
	mu     sync.Mutex
	seeker *fasta.Seeker
}

// OpenSeekerReference opens an indexed FASTA (a .fai sibling file is
// required, as for samtools faidx).
func OpenSeekerReference(path string) *SeekerReference {
	return &SeekerReference{seeker: fasta.NewSeeker(path, "")}
}

// Get implements classify.Reference.
func (r *SeekerReference) Get(chrom string, start, end int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq, err := fasta.SeekByName(r.seeker, chrom, start, end)
	if err != nil {
		return "", err
	}
	dna.AllToUpper(seq)
	return dna.BasesToString(seq), nil
}

// Close releases the underlying FASTA handle.
func (r *SeekerReference) Close() error {
	return r.seeker.Close()
}
