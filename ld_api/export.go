package ld_api

import (
	"bufio"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/carbocation/pfx"
)

// The line separator of exported files
const exportLineSeparator = "\r\n"

// WriteDelimited writes the table with cells separated by delimiter and rows
// separated by CRLF
func WriteDelimited(w io.Writer, table [][]string, delimiter string) error {
	lines := make([]string, len(table))
	for i, row := range table {
		lines[i] = strings.Join(row, delimiter)
	}
	_, err := io.WriteString(w, strings.Join(lines, exportLineSeparator))
	return err
}

// ReadDelimited reads a table written by WriteDelimited
func ReadDelimited(r io.Reader, delimiter string) ([][]string, error) {
	table := [][]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		table = append(table, strings.Split(line, delimiter))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// WriteExports writes the D' and r² tables next to each other as
// <prefix>.dprime.txt and <prefix>.rsquared.txt
func WriteExports(prefix string, matrix *LDMatrix) ([]string, error) {
	dPrime, rSquared := matrix.ExportTables()
	files := []string{prefix + ".dprime.txt", prefix + ".rsquared.txt"}

	for i, table := range [][][]string{dPrime, rSquared} {
		if err := writeFile(files[i], table); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func writeFile(path string, table [][]string) error {
	outputFile, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer outputFile.Close()

	if err := WriteDelimited(outputFile, table, "\t"); err != nil {
		return pfx.Err(err)
	}
	return outputFile.Close()
}

// WriteTable writes the table with aligned columns, for terminal output
func WriteTable(w io.Writer, table [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range table {
		if _, err := io.WriteString(tw, strings.Join(row, "\t")+"\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}
