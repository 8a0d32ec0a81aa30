package ld_api

import (
	"strings"
)

// ResolveLocation fills in the tokens of a genotype source location
//
//	$CHROM      the chromosome without a "chr" prefix
//	$CHR_PREFIX the chromosome with a "chr" prefix
func ResolveLocation(template string, chromosome string) string {
	chromosome = normalizeChromosome(chromosome)

	location := strings.ReplaceAll(template, "$CHR_PREFIX", "chr"+chromosome)
	location = strings.ReplaceAll(location, "$CHROM", chromosome)

	return location
}
