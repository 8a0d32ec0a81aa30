package ld_api

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/carbocation/pfx"
)

// GenotypeSource is a positionally queryable set of VCF data lines.
// A source is opened once per request and is safe for concurrent queries.
type GenotypeSource interface {
	// Header returns the parsed header, loaded once when the source was opened
	Header() *Header

	// Lines returns the raw data lines overlapping chromosome:start-end (1-based, inclusive)
	Lines(ctx context.Context, chromosome string, start, end int64) ([]string, error)

	Close() error
}

// SourceOpener opens the genotype source at a location for one chromosome
type SourceOpener func(ctx context.Context, location, chromosome string) (GenotypeSource, error)

// OpenSource opens a genotype source. Locations may be http(s) URLs,
// gs://bucket/object paths or local files. A tabix index is expected next
// to the source (location + ".tbi"); local files without one are scanned
// in full.
func OpenSource(ctx context.Context, location, chromosome string) (GenotypeSource, error) {
	opener, closer, err := newFileOpener(ctx, location)
	if err != nil {
		return nil, pfx.Err(err)
	}

	source, err := openTabixSource(ctx, location, opener)
	if err == nil {
		source.closer = closer
		return source, nil
	}

	if isLocal(location) && errors.Is(err, fs.ErrNotExist) {
		logger.Printf("No tabix index found for %s, scanning the whole file", location)
		closer()
		file, err := os.Open(location)
		if err != nil {
			return nil, pfx.Err(err)
		}
		defer file.Close()
		return NewScanSource(file, chromosome)
	}

	closer()
	return nil, pfx.Err(err)
}

// isLocal reports whether a location points to the local filesystem
func isLocal(location string) bool {
	return !strings.Contains(location, "://")
}

// normalizeChromosome strips a "chr" prefix so 1 and chr1 compare equal
func normalizeChromosome(chromosome string) string {
	if len(chromosome) > 3 && strings.EqualFold(chromosome[:3], "chr") {
		return chromosome[3:]
	}
	return chromosome
}

// readHeader reads all header lines at the start of a VCF stream
func readHeader(r *bufio.Reader) (*Header, error) {
	header := newHeader()
	for {
		peek, err := r.Peek(1)
		if err != nil {
			if err == io.EOF {
				return header, nil
			}
			return nil, err
		}
		if peek[0] != '#' {
			return header, nil
		}

		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		header.parse(strings.TrimRight(line, "\r\n"))
		if err == io.EOF {
			return header, nil
		}
	}
}

// readBgzipHeader reads the header at the start of a bgzip compressed VCF
func readBgzipHeader(input io.Reader) (*Header, error) {
	bgReader, err := bgzf.NewReader(input, 1)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer bgReader.Close()

	header, err := readHeader(bufio.NewReader(bgReader))
	if err != nil {
		return nil, pfx.Err(err)
	}
	return header, nil
}
