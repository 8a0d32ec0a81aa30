package ld_api

import (
	"context"
	"math"
	"sort"
)

// SentinelPolicy decides what an undefined statistic (0/0, or fewer than four
// distinct compound haplotypes) is reported as
type SentinelPolicy int

const (
	// Report undefined statistics as 1.0
	SentinelMax SentinelPolicy = iota

	// Keep undefined statistics as NaN, exported as NA
	SentinelUndefined
)

func (p SentinelPolicy) String() string {
	switch p {
	case SentinelMax:
		return "max"
	case SentinelUndefined:
		return "nan"
	default:
		return "unknown"
	}
}

func (p SentinelPolicy) apply(value float64) float64 {
	if math.IsNaN(value) && p == SentinelMax {
		return 1
	}
	return value
}

// The alleles one chromosome copy carries at two sites
type compoundHaplotype struct {
	first, second string
}

func (c compoundHaplotype) less(other compoundHaplotype) bool {
	if c.first != other.first {
		return c.first < other.first
	}
	return c.second < other.second
}

// compoundCounts counts the compound haplotypes of the samples with a call at both sites
func compoundCounts(a, b *GenotypeRecord) map[compoundHaplotype]int {
	counts := map[compoundHaplotype]int{}

	// Both haplotype lists are ordered by SampleIndex
	i, j := 0, 0
	for i < len(a.Haplotypes) && j < len(b.Haplotypes) {
		ha, hb := a.Haplotypes[i], b.Haplotypes[j]
		switch {
		case ha.SampleIndex < hb.SampleIndex:
			i++
		case ha.SampleIndex > hb.SampleIndex:
			j++
		default:
			for strand := 0; strand < 2; strand++ {
				counts[compoundHaplotype{ha.Alleles[strand], hb.Alleles[strand]}]++
			}
			i++
			j++
		}
	}

	return counts
}

// slotCounts assigns the counts of the lexicographically sorted compound
// haplotypes to p1, p2, q1 and q2. ok is false unless exactly four occur.
// The order compares the first allele, then the second, so it differs from
// the order of the concatenated allele strings for multi-base alleles.
func slotCounts(counts map[compoundHaplotype]int) (p1, p2, q1, q2 float64, ok bool) {
	keys := make([]compoundHaplotype, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].less(keys[j])
	})

	if len(keys) != 4 {
		return 0, 0, 0, 0, false
	}
	return float64(counts[keys[0]]), float64(counts[keys[1]]), float64(counts[keys[2]]), float64(counts[keys[3]]), true
}

// CalculateLD computes D' and r² from the four compound haplotype counts.
// Degenerate denominators yield NaN.
func CalculateLD(p1, p2, q1, q2 float64) (dPrime, rSquared float64) {
	d := p1*q2 - p2*q1
	ms := (p1 + q1) * (p2 + q2) * (p1 + p2) * (q1 + q2)
	rSquared = ratio(d*d, ms)

	var dMax float64
	if d < 0 {
		dMax = math.Min((p1+q1)*(p1+p2), (p2+q2)*(q1+q2))
	} else {
		dMax = math.Min((p1+q1)*(q1+q2), (p1+p2)*(p2+q2))
	}
	dPrime = math.Abs(ratio(d, dMax))

	return dPrime, rSquared
}

// ratio divides like floating point division except that x/0 is NaN for every x
func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return math.NaN()
	}
	return numerator / denominator
}

// PairLD computes the LD statistics between two records with haplotypes
func PairLD(a, b *GenotypeRecord, policy SentinelPolicy) PairwiseLDResult {
	dPrime, rSquared := math.NaN(), math.NaN()
	if p1, p2, q1, q2, ok := slotCounts(compoundCounts(a, b)); ok {
		dPrime, rSquared = CalculateLD(p1, p2, q1, q2)
	}

	return PairwiseLDResult{
		VariantA: a.Id,
		VariantB: b.Id,
		DPrime:   policy.apply(dPrime),
		RSquared: policy.apply(rSquared),
	}
}

// CalculatePairwise computes the LD statistics of every pair i <= j of the
// position sorted records, self pairs included
func CalculatePairwise(ctx context.Context, records []*GenotypeRecord, policy SentinelPolicy) ([]PairwiseLDResult, error) {
	results := make([]PairwiseLDResult, 0, len(records)*(len(records)+1)/2)
	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i; j < len(records); j++ {
			results = append(results, PairLD(records[i], records[j], policy))
		}
	}
	return results, nil
}
