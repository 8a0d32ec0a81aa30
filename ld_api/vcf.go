package ld_api

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var headerLineRegex = regexp.MustCompile(`^##(?P<headerType>[^=]*)=<(?P<content>.*)>$`)

// A parsed data line without its sample columns
type site struct {
	Chromosome string
	Pos        int64
	Id         string
	Ref        string
	Alts       []string
	fields     []string
}

// Create a new header struct
func newHeader() *Header {
	return &Header{
		Format:  map[string]HeaderLineIdNumberTypeDescription{},
		Contig:  []HeaderLineIdLength{},
		Samples: []string{},
	}
}

// Parse the header line and add it to the Header struct.
// Only FORMAT, contig and the #CHROM line are kept.
func (header *Header) parse(line string) {
	if strings.HasPrefix(line, "#CHROM") {
		columns := strings.Split(line, "\t")
		if len(columns) > 9 {
			header.Samples = columns[9:]
		}
		return
	}

	matches := headerLineRegex.FindStringSubmatch(line)
	if len(matches) == 0 {
		return
	}

	headerType := matches[1]
	contentMap := convertLineToMap(matches[2])

	switch headerType {
	case "FORMAT":
		header.Format[contentMap["id"]] = HeaderLineIdNumberTypeDescription{
			Id:          contentMap["id"],
			Number:      contentMap["number"],
			Type:        contentMap["type"],
			Description: contentMap["description"],
		}
	case "contig":
		// 1000 Genomes headers omit the length on some contigs
		length, err := strconv.ParseInt(contentMap["length"], 0, 64)
		if err != nil {
			length = 0
		}
		header.Contig = append(header.Contig, HeaderLineIdLength{
			Id:     contentMap["id"],
			Length: length,
		})
	}
}

// validate checks that the samples carry a genotype field
func (header *Header) validate() error {
	if _, ok := header.Format["GT"]; !ok {
		return fmt.Errorf("the header does not declare a FORMAT GT field")
	}
	return nil
}

// DeclaresContig reports whether chromosome is one of the contig lines.
// A header without contig lines declares every chromosome.
func (header *Header) DeclaresContig(chromosome string) bool {
	if len(header.Contig) == 0 {
		return true
	}
	chromosome = normalizeChromosome(chromosome)
	for _, contig := range header.Contig {
		if normalizeChromosome(contig.Id) == chromosome {
			return true
		}
	}
	return false
}

// convertLineToMap converts the header line contents to a map suitable to transform to a struct
func convertLineToMap(line string) map[string]string {
	data := map[string]string{}
	var word strings.Builder
	key := ""
	quote := rune(0)
	for _, letter := range line {
		if letter == '=' && quote == 0 && key == "" {
			key = strings.ToLower(word.String())
			word.Reset()
			continue
		} else if letter == ',' && quote == 0 {
			data[key] = word.String()
			key = ""
			word.Reset()
			continue
		}

		word.WriteRune(letter)

		if letter == quote {
			quote = 0
		} else if quote == 0 && (letter == '"' || letter == '\'') {
			quote = letter
		}
	}
	data[key] = word.String()

	return data
}

// Parse the fixed columns of a data line
func parseSite(line string) (*site, error) {
	data := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(data) < 8 {
		return nil, fmt.Errorf("expected at least 8 columns, got %d", len(data))
	}

	pos, err := strconv.ParseInt(data[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid position '%s': %w", data[1], err)
	}

	s := &site{
		Chromosome: data[0],
		Pos:        pos,
		Ref:        data[3],
		Alts:       strings.Split(data[4], ","),
		fields:     data,
	}
	if data[2] != "." {
		// Only the first ID is compared, multiple IDs are separated by ';'
		s.Id = strings.SplitN(data[2], ";", 2)[0]
	}
	return s, nil
}

// Turn the site into a record holding the GT value of every sample
func (s *site) record(header *Header) *GenotypeRecord {
	record := &GenotypeRecord{
		Id:                s.Id,
		Chromosome:        s.Chromosome,
		Position:          s.Pos,
		Ref:               s.Ref,
		Alt:               s.Alts[0],
		GenotypesBySample: map[string]string{},
	}

	if len(s.fields) < 10 {
		return record
	}

	gtIndex := -1
	for idx, key := range strings.Split(s.fields[8], ":") {
		if key == "GT" {
			gtIndex = idx
			break
		}
	}
	if gtIndex < 0 {
		return record
	}

	for index, value := range s.fields[9:] {
		if index >= len(header.Samples) {
			break
		}
		values := strings.Split(value, ":")
		if gtIndex >= len(values) {
			continue
		}
		record.GenotypesBySample[header.Samples[index]] = values[gtIndex]
	}

	return record
}
