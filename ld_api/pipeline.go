package ld_api

import (
	"context"
	"time"
)

// Request is one LD matrix computation
type Request struct {
	// The variant identifiers, e.g. rs1234
	Ids []string

	// The population codes whose samples are used
	Populations []string

	// The name of the genome build
	GenomeBuild string
}

// Result holds the matrix and what it was computed from
type Result struct {
	Matrix *LDMatrix

	// The located records in position order, with their haplotypes
	Variants []*GenotypeRecord

	// The requested sample set
	Samples []string
}

// Pipeline computes LD matrices. It holds no per-request state and can
// serve concurrent requests.
type Pipeline struct {
	Resolver    CoordinateResolver
	Builds      map[string]GenomeBuild
	Populations Populations

	// Opens the genotype source of a request, OpenSource when nil
	Open SourceOpener

	Locate   LocateOptions
	Sentinel SentinelPolicy
}

// NewPipeline wires a pipeline from the configuration. The returned close
// function releases the coordinate database, if one is configured.
func NewPipeline(config *Config) (*Pipeline, func() error, error) {
	populations, err := config.LoadPopulations()
	if err != nil {
		return nil, nil, err
	}

	pipeline := &Pipeline{
		Builds:      config.Builds,
		Populations: populations,
		Open:        OpenSource,
		Locate: LocateOptions{
			Strategy:    Sequential,
			MaxInFlight: config.Concurrency,
			Window:      config.Window,
		},
	}
	if config.Concurrency > 1 {
		pipeline.Locate.Strategy = Concurrent
	}

	closer := func() error { return nil }
	if config.CoordinatesDb != "" {
		resolver, err := OpenCoordinateDb(config.CoordinatesDb)
		if err != nil {
			return nil, nil, err
		}
		pipeline.Resolver = resolver
		closer = resolver.Close
	} else {
		pipeline.Resolver = &NCBIResolver{Endpoint: config.Ncbi.Endpoint, ApiKey: config.Ncbi.ApiKey}
	}

	return pipeline, closer, nil
}

// Run computes the LD matrix of a request. Any failure aborts the whole
// request, no partial matrix is returned.
func (p *Pipeline) Run(ctx context.Context, request Request) (*Result, error) {
	start := time.Now()

	build, err := lookupBuild(p.Builds, request.GenomeBuild)
	if err != nil {
		return nil, err
	}
	samples, err := p.Populations.Samples(request.Populations)
	if err != nil {
		return nil, err
	}

	queries, err := p.Resolver.Resolve(ctx, request.Ids)
	if err != nil {
		return nil, err
	}
	if err := ValidateSnps(queries); err != nil {
		return nil, err
	}

	chromosome := queries[0].Chromosome
	open := p.Open
	if open == nil {
		open = OpenSource
	}
	location := ResolveLocation(build.Url, chromosome)
	source, err := open(ctx, location, chromosome)
	if err != nil {
		return nil, err
	}
	defer source.Close()
	if !source.Header().DeclaresContig(chromosome) {
		logger.Printf("Chromosome %s is not declared in the header of %s", chromosome, location)
	}

	located, err := LocateVariants(ctx, queries, build.Assembly, source, p.Locate)
	if err != nil {
		return nil, err
	}
	variants, err := CollectVariants(located)
	if err != nil {
		return nil, err
	}

	if err := ExtractHaplotypes(variants, samples); err != nil {
		return nil, err
	}

	results, err := CalculatePairwise(ctx, variants, p.Sentinel)
	if err != nil {
		return nil, err
	}

	logger.Printf("Computed %d pairs for %d variants and %d samples in %.2f s", len(results), len(variants), len(samples), time.Since(start).Seconds())
	return &Result{
		Matrix:   MatrixFromResults(results),
		Variants: variants,
		Samples:  samples,
	}, nil
}
