package ld_api

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/carbocation/pfx"
)

// The gzip magic bytes, bgzip files start with a gzip member
var gzipMagic = []byte{0x1f, 0x8b}

// ScanSource holds all data lines of one chromosome in memory. It is used
// for local VCF files that come without a tabix index.
type ScanSource struct {
	header *Header
	lines  []scannedLine
}

type scannedLine struct {
	chromosome string
	pos        int64
	line       string
}

// NewScanSource reads a plain or bgzip compressed VCF. Only the data lines on
// chromosome are kept, an empty chromosome keeps all of them.
func NewScanSource(input io.Reader, chromosome string) (*ScanSource, error) {
	source := &ScanSource{}
	chromosome = normalizeChromosome(chromosome)

	buffered := bufio.NewReader(input)
	magic, _ := buffered.Peek(len(gzipMagic))

	var err error
	if bytes.Equal(magic, gzipMagic) {
		err = source.readBgzip(buffered, chromosome)
	} else {
		err = source.readPlain(buffered, chromosome)
	}
	if err != nil {
		return nil, pfx.Err(err)
	}

	logger.Printf("Scanned %d data lines for %d samples", len(source.lines), len(source.header.Samples))
	return source, nil
}

func (source *ScanSource) readBgzip(input io.Reader, chromosome string) error {
	bgReader, err := bgzf.NewReader(input, 1)
	if err != nil {
		return err
	}
	defer bgReader.Close()

	return source.readPlain(bufio.NewReader(bgReader), chromosome)
}

func (source *ScanSource) readPlain(input *bufio.Reader, chromosome string) error {
	header, err := readHeader(input)
	if err != nil {
		return err
	}
	if err := header.validate(); err != nil {
		return err
	}
	source.header = header

	scanner := bufio.NewScanner(input)
	const maxCapacity = 8 * 1000000 // 8 MB
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)
	for scanner.Scan() {
		source.parse(scanner.Text(), chromosome)
	}

	return scanner.Err()
}

// Keep the line if it is a data line on the requested chromosome
func (source *ScanSource) parse(line string, chromosome string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	s, err := parseSite(line)
	if err != nil {
		logger.Printf("Skipping malformed line: %v", err)
		return
	}
	if chromosome != "" && normalizeChromosome(s.Chromosome) != chromosome {
		return
	}
	source.lines = append(source.lines, scannedLine{
		chromosome: normalizeChromosome(s.Chromosome),
		pos:        s.Pos,
		line:       line,
	})
}

func (source *ScanSource) Header() *Header {
	return source.header
}

func (source *ScanSource) Lines(ctx context.Context, chromosome string, start, end int64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chromosome = normalizeChromosome(chromosome)
	lines := []string{}
	for _, l := range source.lines {
		if l.chromosome == chromosome && l.pos >= start && l.pos <= end {
			lines = append(lines, l.line)
		}
	}
	return lines, nil
}

func (source *ScanSource) Close() error {
	return nil
}
