package ld_api

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// The default number of bases searched on each side of a variant
const DefaultWindow = 10

// The default number of lookups in flight for the concurrent strategy
const DefaultMaxInFlight = 4

// LocateStrategy decides how the queries of one request are located
type LocateStrategy int

const (
	// Locate one query at a time, in query order
	Sequential LocateStrategy = iota

	// Locate queries concurrently, bounded by LocateOptions.MaxInFlight
	Concurrent
)

func (s LocateStrategy) String() string {
	switch s {
	case Sequential:
		return "sequential"
	case Concurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// LocateOptions controls LocateVariants
type LocateOptions struct {
	Strategy LocateStrategy

	// The maximum number of concurrent lookups, DefaultMaxInFlight when <= 0
	MaxInFlight int

	// The number of bases searched on each side of the query position, DefaultWindow when <= 0
	Window int64
}

// LocateResult is the outcome of locating one query
type LocateResult struct {
	Query VariantQuery

	// The located record, nil when Found is false
	Record *GenotypeRecord

	// Whether a matching biallelic record was found in the search window
	Found bool
}

// ValidateSnps checks that the queries can be compared with each other
func ValidateSnps(queries []VariantQuery) error {
	chromosomes := map[string]struct{}{}
	for _, query := range queries {
		chromosomes[normalizeChromosome(query.Chromosome)] = struct{}{}
	}

	if len(chromosomes) > 1 {
		return &ValidationError{Reason: "multiple chromosomes"}
	}

	if len(queries) < 2 {
		return &ValidationError{Reason: "insufficient input"}
	}

	return nil
}

// LocateVariant searches the window around the query position for the first
// biallelic record whose ID or exact position matches the query
func LocateVariant(ctx context.Context, query VariantQuery, assembly string, source GenotypeSource, window int64) (LocateResult, error) {
	result := LocateResult{Query: query}
	if window <= 0 {
		window = DefaultWindow
	}

	position, ok := query.PositionByAssembly[assembly]
	if !ok {
		logger.Printf("No %s position known for %s", assembly, query.Id)
		return result, nil
	}

	lines, err := source.Lines(ctx, query.Chromosome, position-window, position+window)
	if err != nil {
		return result, err
	}

	for _, line := range lines {
		s, err := parseSite(line)
		if err != nil {
			logger.Printf("Skipping malformed line near %s: %v", query.Id, err)
			continue
		}
		if s.Pos < position-window || s.Pos > position+window {
			continue
		}
		if s.Id != query.Id && s.Pos != position {
			continue
		}
		if len(s.Alts) != 1 {
			continue
		}

		record := s.record(source.Header())
		if record.Id == "" {
			record.Id = query.Id
		}
		result.Record = record
		result.Found = true
		return result, nil
	}

	return result, nil
}

// LocateVariants locates every query against the shared source. The results
// are returned in query order whatever the strategy.
func LocateVariants(ctx context.Context, queries []VariantQuery, assembly string, source GenotypeSource, options LocateOptions) ([]LocateResult, error) {
	results := make([]LocateResult, len(queries))

	if options.Strategy == Sequential {
		for i, query := range queries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			result, err := LocateVariant(ctx, query, assembly, source, options.Window)
			if err != nil {
				return nil, err
			}
			results[i] = result
		}
		return results, nil
	}

	limit := options.MaxInFlight
	if limit <= 0 {
		limit = DefaultMaxInFlight
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, query := range queries {
		i, query := i, query
		group.Go(func() error {
			result, err := LocateVariant(groupCtx, query, assembly, source, options.Window)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// CollectVariants returns the located records sorted by position, or a
// MissingVariantError naming every query without a record
func CollectVariants(results []LocateResult) ([]*GenotypeRecord, error) {
	missing := []string{}
	records := make([]*GenotypeRecord, 0, len(results))
	for _, result := range results {
		if !result.Found {
			missing = append(missing, result.Query.Id)
			continue
		}
		records = append(records, result.Record)
	}

	if len(missing) > 0 {
		return nil, &MissingVariantError{Ids: missing}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Position < records[j].Position
	})
	return records, nil
}
