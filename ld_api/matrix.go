package ld_api

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// LDMatrix is a symmetric, ID indexed matrix of pairwise LD results
type LDMatrix struct {
	ids   []string
	seen  map[string]struct{}
	cells map[cellKey]PairwiseLDResult
}

type cellKey struct {
	x, y string
}

// Statistic selects one value of a result
type Statistic func(PairwiseLDResult) float64

// DPrime selects D' of a result
func DPrime(result PairwiseLDResult) float64 { return result.DPrime }

// RSquared selects r² of a result
func RSquared(result PairwiseLDResult) float64 { return result.RSquared }

// NewLDMatrix returns an empty matrix
func NewLDMatrix() *LDMatrix {
	return &LDMatrix{
		ids:   []string{},
		seen:  map[string]struct{}{},
		cells: map[cellKey]PairwiseLDResult{},
	}
}

// AsMatrix folds pairwise results into a matrix. rowKey and colKey project
// the two axes of a result, ids keep their first encountered order.
func AsMatrix(results []PairwiseLDResult, rowKey, colKey func(PairwiseLDResult) string) *LDMatrix {
	matrix := NewLDMatrix()
	for _, result := range results {
		matrix.Set(rowKey(result), colKey(result), result)
	}
	return matrix
}

// MatrixFromResults builds the matrix keyed by variant ID on both axes
func MatrixFromResults(results []PairwiseLDResult) *LDMatrix {
	return AsMatrix(
		results,
		func(r PairwiseLDResult) string { return r.VariantA },
		func(r PairwiseLDResult) string { return r.VariantB },
	)
}

// Set stores the result under (x, y) and (y, x)
func (m *LDMatrix) Set(x, y string, result PairwiseLDResult) {
	m.register(x)
	m.register(y)
	m.cells[cellKey{x, y}] = result
	m.cells[cellKey{y, x}] = result
}

func (m *LDMatrix) register(id string) {
	if _, ok := m.seen[id]; ok {
		return
	}
	m.seen[id] = struct{}{}
	m.ids = append(m.ids, id)
}

// Get returns the result stored for a pair of IDs
func (m *LDMatrix) Get(a, b string) (PairwiseLDResult, bool) {
	result, ok := m.cells[cellKey{a, b}]
	return result, ok
}

// Ids returns the row and column keys in order
func (m *LDMatrix) Ids() []string {
	return append([]string(nil), m.ids...)
}

// Len returns the number of rows (and columns)
func (m *LDMatrix) Len() int {
	return len(m.ids)
}

// FormatStatistic formats a statistic with 3 decimals, NaN as NA
func FormatStatistic(value float64) string {
	if math.IsNaN(value) {
		return "NA"
	}
	return strconv.FormatFloat(value, 'f', 3, 64)
}

func (m *LDMatrix) header() []string {
	return append([]string{"id"}, m.ids...)
}

// Table returns a display table with both statistics in every cell
func (m *LDMatrix) Table() [][]string {
	table := [][]string{m.header()}
	for _, row := range m.ids {
		line := []string{row}
		for _, column := range m.ids {
			cell := ""
			if result, ok := m.Get(row, column); ok {
				cell = fmt.Sprintf("D' = %s / R² = %s", FormatStatistic(result.DPrime), FormatStatistic(result.RSquared))
			}
			line = append(line, cell)
		}
		table = append(table, line)
	}
	return table
}

// ExportTable returns a header row of IDs followed by one row per ID holding
// the formatted statistic of every pair
func (m *LDMatrix) ExportTable(statistic Statistic) [][]string {
	table := [][]string{m.header()}
	for _, row := range m.ids {
		line := []string{row}
		for _, column := range m.ids {
			cell := ""
			if result, ok := m.Get(row, column); ok {
				cell = FormatStatistic(statistic(result))
			}
			line = append(line, cell)
		}
		table = append(table, line)
	}
	return table
}

// ExportTables returns the D' and the r² export tables
func (m *LDMatrix) ExportTables() (dPrime, rSquared [][]string) {
	return m.ExportTable(DPrime), m.ExportTable(RSquared)
}

// The JSON form of a result, undefined statistics become null
type jsonResult struct {
	VariantA string   `json:"variantA"`
	VariantB string   `json:"variantB"`
	DPrime   *float64 `json:"dPrime"`
	RSquared *float64 `json:"rSquared"`
}

func finiteOrNil(value float64) *float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}

func (m *LDMatrix) MarshalJSON() ([]byte, error) {
	matrix := map[string]map[string]jsonResult{}
	for _, row := range m.ids {
		matrix[row] = map[string]jsonResult{}
		for _, column := range m.ids {
			if result, ok := m.Get(row, column); ok {
				matrix[row][column] = jsonResult{
					VariantA: result.VariantA,
					VariantB: result.VariantB,
					DPrime:   finiteOrNil(result.DPrime),
					RSquared: finiteOrNil(result.RSquared),
				}
			}
		}
	}

	return json.Marshal(struct {
		Columns []string                         `json:"columns"`
		Matrix  map[string]map[string]jsonResult `json:"matrix"`
	}{m.ids, matrix})
}
