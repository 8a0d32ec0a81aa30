package ld_api

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/hts/bgzf"
	bgzfindex "github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/tabix"
	"github.com/carbocation/pfx"
)

// fileOpener opens a fresh reader on a path of the source location
type fileOpener func(ctx context.Context, path string) (io.ReadSeekCloser, error)

// TabixSource queries a bgzip compressed VCF through its tabix index. The
// header and the index are read once; every query opens its own reader so
// queries can run concurrently.
type TabixSource struct {
	location string
	header   *Header
	index    *tabix.Index
	names    map[string]string
	open     fileOpener
	closer   func()
}

func openTabixSource(ctx context.Context, location string, open fileOpener) (*TabixSource, error) {
	indexFile, err := open(ctx, location+".tbi")
	if err != nil {
		return nil, err
	}
	defer indexFile.Close()

	// The index is stored as BGZF but tabix.ReadFrom expects it decompressed
	indexReader, err := bgzf.NewReader(indexFile, 1)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer indexReader.Close()

	idx, err := tabix.ReadFrom(indexReader)
	if err != nil {
		return nil, pfx.Err(err)
	}

	dataFile, err := open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer dataFile.Close()

	header, err := readBgzipHeader(dataFile)
	if err != nil {
		return nil, err
	}
	if err := header.validate(); err != nil {
		return nil, pfx.Err(err)
	}

	names := map[string]string{}
	for _, name := range idx.Names() {
		names[normalizeChromosome(name)] = name
	}

	logger.Printf("Loaded tabix index of %s (%d references, %d samples)", location, len(names), len(header.Samples))
	return &TabixSource{
		location: location,
		header:   header,
		index:    idx,
		names:    names,
		open:     open,
		closer:   func() {},
	}, nil
}

func (source *TabixSource) Header() *Header {
	return source.header
}

func (source *TabixSource) Lines(ctx context.Context, chromosome string, start, end int64) ([]string, error) {
	reference, ok := source.names[normalizeChromosome(chromosome)]
	if !ok {
		logger.Printf("Chromosome %s is not present in the index of %s", chromosome, source.location)
		return nil, nil
	}

	// The index works with 0-based half-open intervals
	beg := start - 1
	if beg < 0 {
		beg = 0
	}
	chunks, err := source.index.Chunks(reference, int(beg), int(end))
	if err != nil || len(chunks) == 0 {
		// No indexed data overlaps the interval
		return nil, nil
	}

	file, err := source.open(ctx, source.location)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer file.Close()

	bgReader, err := bgzf.NewReader(file, 1)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer bgReader.Close()

	chunkReader, err := bgzfindex.NewChunkReader(bgReader, chunks)
	if err != nil {
		return nil, pfx.Err(err)
	}

	lines := []string{}
	reader := bufio.NewReader(chunkReader)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := reader.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); overlaps(line, reference, start, end) {
			lines = append(lines, line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pfx.Err(err)
		}
	}
	return lines, nil
}

// overlaps reports whether a data line lies on reference within start-end.
// Index chunks cover whole bins, so they hold lines around the interval too.
func overlaps(line, reference string, start, end int64) bool {
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}
	fields := strings.SplitN(line, "\t", 3)
	if len(fields) < 3 || fields[0] != reference {
		return false
	}
	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return false
	}
	return pos >= start && pos <= end
}

func (source *TabixSource) Close() error {
	source.closer()
	return nil
}
