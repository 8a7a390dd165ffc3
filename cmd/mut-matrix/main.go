package main

/*
mut-matrix computes strand-stratified mutation-count matrices for signature
analysis.  Given one VCF per sample, a strand-annotated BED and a reference
FASTA, it writes one TSV per mutation type with (context, strand) categories
as rows and samples as columns.
*/

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/mutmatrix/classify"
	"github.com/grailbio/mutmatrix/mutation"
	"github.com/grailbio/mutmatrix/refseq"
	"github.com/grailbio/mutmatrix/spectra"
	"github.com/grailbio/mutmatrix/strand"
	"github.com/grailbio/mutmatrix/variants"
)

var (
	modeFlag    = flag.String("mode", "transcription", "Strand annotation scheme; 'transcription' or 'replication'")
	typesFlag   = flag.String("types", "snv", "Comma-separated mutation types to tabulate ('snv', 'dbs', 'indel'), or 'all'")
	rangesPath  = flag.String("ranges", "", "Strand-annotated BED path: BED6 with +/- strand (transcription) or BED4 with left/right direction (replication); required")
	outPrefix   = flag.String("out", "mut-matrix", "Output path prefix; one <prefix>.<type>.tsv per mutation type")
	gzipOut     = flag.Bool("gzip", false, "Gzip-compress output TSVs")
	parallelism = flag.Int("parallelism", 0, "Maximum number of samples processed concurrently; 0 = runtime.NumCPU()")
)

func mutMatrixUsage() {
	fmt.Printf("Usage: %s [OPTIONS] -ranges annotations.bed fapath sample1.vcf [sample2.vcf ...]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = mutMatrixUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() < 2 {
		log.Fatalf("Missing positional arguments; a reference FASTA and at least one sample VCF are required")
	}
	if *rangesPath == "" {
		log.Fatalf("-ranges is required")
	}
	faPath := flag.Arg(0)
	vcfPaths := flag.Args()[1:]

	mode, err := strand.ParseMode(*modeFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	types, err := mutation.ParseTypes(*typesFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ranges, err := variants.ReadRanges(*rangesPath, mode)
	if err != nil {
		log.Fatalf("loading ranges: %v", err)
	}
	log.Printf("loaded %d annotation ranges from %s", len(ranges), *rangesPath)

	samples, err := variants.LoadSamples(vcfPaths)
	if err != nil {
		log.Fatalf("loading samples: %v", err)
	}
	for _, s := range samples {
		log.Printf("sample %s: %d mutation records", s.Name, len(s.Mutations))
	}

	ref, cleanup, err := openReference(faPath)
	if err != nil {
		log.Fatalf("loading reference: %v", err)
	}
	defer cleanup()

	opts := spectra.Opts{Mode: mode, Types: types, Parallelism: *parallelism}
	matrices, err := spectra.ComputeStrandedMatrices(classify.New(ref), samples, ranges, opts)
	if err != nil {
		log.Fatalf("%v", err)
	}

	for _, t := range types {
		m, ok := matrices[t]
		if !ok {
			log.Printf("no %s mutations in any sample; matrix omitted", t)
			continue
		}
		path := fmt.Sprintf("%s.%s.tsv", *outPrefix, t)
		if *gzipOut {
			path += ".gz"
		}
		if err := m.WriteTSVFile(path); err != nil {
			log.Fatalf("writing %s: %v", path, err)
		}
		log.Printf("wrote %s (%d categories x %d samples)", path, len(m.Categories), len(m.Samples))
	}
}

// openReference prefers random access through a .fai index and falls back
// to loading the whole FASTA into memory.
func openReference(path string) (classify.Reference, func(), error) {
	if _, err := os.Stat(path + ".fai"); err == nil {
		ref := variants.OpenSeekerReference(path)
		return ref, func() { closeQuietly(ref) }, nil
	}
	g, err := refseq.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return g, func() {}, nil
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		log.Error.Printf("closing reference: %v", err)
	}
}
