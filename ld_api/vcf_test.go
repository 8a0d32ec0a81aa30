package ld_api

import (
	"bufio"
	"reflect"
	"strings"
	"testing"
)

func TestReadHeader(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader(testVcf))
	header, err := readHeader(reader)
	if err != nil {
		t.Fatal(err)
	}

	if expected := []string{"S1", "S2", "S3", "S4"}; !reflect.DeepEqual(header.Samples, expected) {
		t.Errorf("Got samples %v, expected %v", header.Samples, expected)
	}
	if expected := []HeaderLineIdLength{{Id: "1", Length: 249250621}}; !reflect.DeepEqual(header.Contig, expected) {
		t.Errorf("Got contigs %v, expected %v", header.Contig, expected)
	}

	expectedFormat := HeaderLineIdNumberTypeDescription{Id: "GT", Number: "1", Type: "String", Description: "\"Genotype\""}
	if header.Format["GT"] != expectedFormat {
		t.Errorf("Got %+v, expected %+v", header.Format["GT"], expectedFormat)
	}
	if len(header.Format) != 1 {
		t.Errorf("Got FORMAT fields %v, expected only GT", header.Format)
	}
	if err := header.validate(); err != nil {
		t.Error(err)
	}

	// The reader is left at the first data line
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(line, "1\t100\trs100") {
		t.Errorf("Got %q after the header", line)
	}
}

func TestHeaderWithoutGenotypes(t *testing.T) {
	vcf := strings.Replace(testVcf, "##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Genotype\">\n", "", 1)
	header, err := readHeader(bufio.NewReader(strings.NewReader(vcf)))
	if err != nil {
		t.Fatal(err)
	}
	if err := header.validate(); err == nil {
		t.Error("Expected an error for a header without FORMAT GT")
	}

	if _, err := NewScanSource(strings.NewReader(vcf), "1"); err == nil {
		t.Error("Expected NewScanSource to reject a source without genotypes")
	}
}

func TestHeaderDeclaresContig(t *testing.T) {
	header, err := readHeader(bufio.NewReader(strings.NewReader(testVcf)))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		chromosome string
		expected   bool
	}{
		{"1", true},
		{"chr1", true},
		{"2", false},
		{"X", false},
	}
	for _, tt := range tests {
		if got := header.DeclaresContig(tt.chromosome); got != tt.expected {
			t.Errorf("%s: got %v, expected %v", tt.chromosome, got, tt.expected)
		}
	}

	if !newHeader().DeclaresContig("X") {
		t.Error("A header without contig lines should declare every chromosome")
	}
}

func TestConvertLineToMap(t *testing.T) {
	got := convertLineToMap(`ID=AF,Number=A,Type=Float,Description="Allele Frequency, per ALT"`)
	expected := map[string]string{
		"id":          "AF",
		"number":      "A",
		"type":        "Float",
		"description": `"Allele Frequency, per ALT"`,
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Got %v, expected %v", got, expected)
	}
}

func TestParseSite(t *testing.T) {
	s, err := parseSite("1\t300\trs300;rs301\tG\tA,T\t100\tPASS\t.\tGT\t0|1\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if s.Chromosome != "1" || s.Pos != 300 || s.Id != "rs300" || s.Ref != "G" || !reflect.DeepEqual(s.Alts, []string{"A", "T"}) {
		t.Errorf("Got %+v", s)
	}

	s, err = parseSite("1\t300\t.\tG\tA\t100\tPASS\t.")
	if err != nil {
		t.Fatal(err)
	}
	if s.Id != "" {
		t.Errorf("Got id %s, expected none", s.Id)
	}

	for _, line := range []string{"1\t300\trs1\tG\tA", "1\tabc\trs1\tG\tA\t.\t.\t."} {
		if _, err := parseSite(line); err == nil {
			t.Errorf("%q: expected an error", line)
		}
	}
}

func TestSiteRecord(t *testing.T) {
	header := newHeader()
	header.Samples = []string{"S1", "S2", "S3"}

	s, err := parseSite("1\t300\trs300\tG\tA\t100\tPASS\t.\tDP:GT\t10:0|1\t12\t9:1|1")
	if err != nil {
		t.Fatal(err)
	}
	record := s.record(header)

	expected := map[string]string{"S1": "0|1", "S3": "1|1"}
	if !reflect.DeepEqual(record.GenotypesBySample, expected) {
		t.Errorf("Got %v, expected %v", record.GenotypesBySample, expected)
	}
	if record.Alt != "A" || record.Position != 300 {
		t.Errorf("Got %+v", record)
	}
}

func TestResolveLocation(t *testing.T) {
	tests := []struct {
		template   string
		chromosome string
		expected   string
	}{
		{"ALL.chr$CHROM.vcf.gz", "22", "ALL.chr22.vcf.gz"},
		{"ALL.chr$CHROM.vcf.gz", "chr22", "ALL.chr22.vcf.gz"},
		{"gs://bucket/$CHR_PREFIX.vcf.gz", "X", "gs://bucket/chrX.vcf.gz"},
		{"/data/all.vcf.gz", "1", "/data/all.vcf.gz"},
	}
	for _, tt := range tests {
		if got := ResolveLocation(tt.template, tt.chromosome); got != tt.expected {
			t.Errorf("%s with %s: got %s, expected %s", tt.template, tt.chromosome, got, tt.expected)
		}
	}
}
