package ld_api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// A bgzip copy of testVcf with its tabix index next to it
const testBgzip = "testdata/test.vcf.gz"

func lineIds(t *testing.T, lines []string) []string {
	t.Helper()
	ids := []string{}
	for _, line := range lines {
		s, err := parseSite(line)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, s.Chromosome+":"+s.Id)
	}
	return ids
}

func checkSourceLines(t *testing.T, source GenotypeSource) {
	t.Helper()
	ctx := context.Background()

	if expected := []string{"S1", "S2", "S3", "S4"}; !reflect.DeepEqual(source.Header().Samples, expected) {
		t.Errorf("Got samples %v, expected %v", source.Header().Samples, expected)
	}

	tests := []struct {
		chromosome string
		start, end int64
		ids        []string
	}{
		{"1", 90, 110, []string{"1:rs100"}},
		{"chr1", 195, 215, []string{"1:rs205"}},
		{"1", 290, 310, []string{"1:", "1:"}},
		{"1", 1, 1000, []string{"1:rs100", "1:rs205", "1:", "1:", "1:rs405"}},
		{"1", 500, 600, []string{}},
	}
	for _, tt := range tests {
		lines, err := source.Lines(ctx, tt.chromosome, tt.start, tt.end)
		if err != nil {
			t.Errorf("%s:%d-%d: %v", tt.chromosome, tt.start, tt.end, err)
			continue
		}
		if got := lineIds(t, lines); !reflect.DeepEqual(got, tt.ids) {
			t.Errorf("%s:%d-%d: got %v, expected %v", tt.chromosome, tt.start, tt.end, got, tt.ids)
		}
	}
}

func TestScanSource(t *testing.T) {
	checkSourceLines(t, newTestSource(t))

	source, err := NewScanSource(bytes.NewReader(bgzipBytes(t, testVcf)), "chr1")
	if err != nil {
		t.Fatal(err)
	}
	checkSourceLines(t, source)
}

func TestScanSourceAllChromosomes(t *testing.T) {
	source, err := NewScanSource(strings.NewReader(testVcf), "")
	if err != nil {
		t.Fatal(err)
	}
	lines, err := source.Lines(context.Background(), "2", 1, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if got := lineIds(t, lines); !reflect.DeepEqual(got, []string{"2:rs2100"}) {
		t.Errorf("Got %v, expected the chromosome 2 line", got)
	}
}

func TestTabixSource(t *testing.T) {
	source, err := OpenSource(context.Background(), testBgzip, "1")
	if err != nil {
		t.Fatal(err)
	}
	defer source.Close()

	if _, ok := source.(*TabixSource); !ok {
		t.Fatalf("Got %T, expected a *TabixSource", source)
	}
	checkSourceLines(t, source)

	lines, err := source.Lines(context.Background(), "2", 90, 110)
	if err != nil {
		t.Fatal(err)
	}
	if got := lineIds(t, lines); !reflect.DeepEqual(got, []string{"2:rs2100"}) {
		t.Errorf("Got %v, expected the chromosome 2 line", got)
	}

	lines, err = source.Lines(context.Background(), "X", 1, 1000)
	if err != nil || len(lines) != 0 {
		t.Errorf("Got %v (%v), expected nothing for a chromosome missing from the index", lines, err)
	}
}

func copyFile(t *testing.T, from, to string) {
	t.Helper()
	data, err := os.ReadFile(from)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(to, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOpenSourceWithoutIndex(t *testing.T) {
	dir := t.TempDir()
	bgzipped := filepath.Join(dir, "test.vcf.gz")
	copyFile(t, testBgzip, bgzipped)
	plain := filepath.Join(dir, "test.vcf")
	if err := os.WriteFile(plain, []byte(testVcf), 0644); err != nil {
		t.Fatal(err)
	}

	for _, location := range []string{bgzipped, plain} {
		source, err := OpenSource(context.Background(), location, "1")
		if err != nil {
			t.Fatalf("%s: %v", location, err)
		}
		if _, ok := source.(*ScanSource); !ok {
			t.Errorf("%s: got %T, expected a *ScanSource", location, source)
		}
		checkSourceLines(t, source)
		source.Close()
	}

	if _, err := OpenSource(context.Background(), filepath.Join(dir, "missing.vcf.gz"), "1"); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestOpenSourceUnsupportedScheme(t *testing.T) {
	if _, err := OpenSource(context.Background(), "ftp://example.org/test.vcf.gz", "1"); err == nil {
		t.Error("Expected an error for an ftp location")
	}
}

func serveTestdata(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	t.Cleanup(server.Close)
	return server
}

func TestOpenSourceHttp(t *testing.T) {
	server := serveTestdata(t)

	source, err := OpenSource(context.Background(), server.URL+"/test.vcf.gz", "1")
	if err != nil {
		t.Fatal(err)
	}
	defer source.Close()
	checkSourceLines(t, source)

	// Remote sources are never scanned in full
	if _, err := OpenSource(context.Background(), server.URL+"/missing.vcf.gz", "1"); err == nil {
		t.Error("Expected an error for a missing remote source")
	}
}

func TestRangeFile(t *testing.T) {
	data := make([]byte, 3*rangeBlockSize+123)
	rand.New(rand.NewSource(1)).Read(data)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "data.bin", time.Time{}, bytes.NewReader(data))
	}))
	defer server.Close()

	file, err := newRangeFile(context.Background(), &httpFetcher{client: http.DefaultClient, url: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	all, err := io.ReadAll(file)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(all, data) {
		t.Fatalf("Got %d bytes that differ from the %d served", len(all), len(data))
	}

	for _, offset := range []int64{rangeBlockSize - 5, 10, 2*rangeBlockSize + 1} {
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			t.Fatal(err)
		}
		buf := make([]byte, 10)
		if _, err := io.ReadFull(file, buf); err != nil {
			t.Fatalf("Offset %d: %v", offset, err)
		}
		if !bytes.Equal(buf, data[offset:offset+10]) {
			t.Errorf("Offset %d: got %x, expected %x", offset, buf, data[offset:offset+10])
		}
	}

	position, err := file.Seek(-3, io.SeekEnd)
	if err != nil || position != int64(len(data)-3) {
		t.Fatalf("Got position %d (%v), expected %d", position, err, len(data)-3)
	}
	tail, err := io.ReadAll(file)
	if err != nil || !bytes.Equal(tail, data[len(data)-3:]) {
		t.Errorf("Got %x (%v), expected %x", tail, err, data[len(data)-3:])
	}

	if _, err := file.Seek(-1, io.SeekStart); err == nil {
		t.Error("Expected an error for a negative position")
	}
}

func TestRangeFileServerIgnoresRanges(t *testing.T) {
	data := []byte(testVcf)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer server.Close()

	file, err := newRangeFile(context.Background(), &httpFetcher{client: http.DefaultClient, url: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	all, err := io.ReadAll(file)
	if err != nil || !bytes.Equal(all, data) {
		t.Errorf("Got %q (%v), expected the served body", all, err)
	}
}

func TestHttpFetcherNotFound(t *testing.T) {
	server := serveTestdata(t)

	_, err := newRangeFile(context.Background(), &httpFetcher{client: http.DefaultClient, url: server.URL + "/missing.tbi"})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Got %v, expected os.ErrNotExist", err)
	}
}

func TestSplitGcsPath(t *testing.T) {
	bucket, object, err := splitGcsPath("gs://genomes/release/ALL.chr1.vcf.gz")
	if err != nil || bucket != "genomes" || object != "release/ALL.chr1.vcf.gz" {
		t.Errorf("Got %s, %s (%v)", bucket, object, err)
	}
	for _, path := range []string{"gs://genomes", "gs:///object", "gs://genomes/"} {
		if _, _, err := splitGcsPath(path); err == nil {
			t.Errorf("%s: expected an error", path)
		}
	}
}
