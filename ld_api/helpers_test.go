package ld_api

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/biogo/hts/bgzf"
)

const testVcf = `##fileformat=VCFv4.2
##FILTER=<ID=PASS,Description="All filters passed">
##contig=<ID=1,length=249250621>
##INFO=<ID=AF,Number=A,Type=Float,Description="Allele Frequency">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	S1	S2	S3	S4
1	100	rs100	A	G	100	PASS	AF=0.5	GT	0|0	0|1	1|0	1|1
1	205	rs205	C	T	100	PASS	AF=0.5	GT	0|1	1|1	0|0	1|0
1	300	.	G	A,T	100	PASS	AF=0.1,0.2	GT	0|1	0|2	0|0	1|1
1	300	.	G	A	100	PASS	AF=0.5	GT:DP	0|0:10	0|1:12	1|1:9	1|0:11
1	405	rs405	T	C	100	PASS	AF=0.5	GT	0|0	0|0	0|1	0|0
2	100	rs2100	A	C	100	PASS	AF=0.5	GT	0|1	0|1	0|1	0|1
`

// newTestSource returns a source holding the lines of chromosome 1 of testVcf
func newTestSource(t *testing.T) *ScanSource {
	t.Helper()
	source, err := NewScanSource(strings.NewReader(testVcf), "1")
	if err != nil {
		t.Fatalf("NewScanSource: %v", err)
	}
	return source
}

// bgzipBytes compresses data with bgzf
func bgzipBytes(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bgzf.NewWriter(&buf, 1)
	if _, err := w.Write([]byte(data)); err != nil {
		t.Fatalf("bgzf write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("bgzf close: %v", err)
	}
	return buf.Bytes()
}

func query(id, chromosome string, grch37 int64) VariantQuery {
	return VariantQuery{
		Id:         id,
		Chromosome: chromosome,
		PositionByAssembly: map[string]int64{
			AssemblyGRCh37: grch37,
			AssemblyGRCh38: grch37 + 1000,
		},
	}
}

// record builds a biallelic record from the GT values of consecutive samples S1, S2, ...
func record(id string, position int64, ref, alt string, genotypes ...string) *GenotypeRecord {
	r := &GenotypeRecord{
		Id:                id,
		Chromosome:        "1",
		Position:          position,
		Ref:               ref,
		Alt:               alt,
		GenotypesBySample: map[string]string{},
	}
	for i, gt := range genotypes {
		r.GenotypesBySample[sampleName(i)] = gt
	}
	return r
}

func sampleName(i int) string {
	return "S" + strconv.Itoa(i+1)
}

func sampleNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = sampleName(i)
	}
	return names
}
