package ld_api

import "strings"

// DecodeGenotype maps a phased biallelic call to the alleles on both
// chromosome copies. ok is false for an absent call.
func DecodeGenotype(genotype, ref, alt string) (alleles [2]string, ok bool, err error) {
	switch genotype {
	case "0|0":
		return [2]string{ref, ref}, true, nil
	case "0|1":
		return [2]string{ref, alt}, true, nil
	case "1|0":
		return [2]string{alt, ref}, true, nil
	case "1|1":
		return [2]string{alt, alt}, true, nil
	}

	if isMissingCall(genotype) {
		return alleles, false, nil
	}
	return alleles, false, &GenotypeDecodeError{Genotype: genotype}
}

// isMissingCall reports whether a GT value holds no called allele (".", "./.", ".|.")
func isMissingCall(genotype string) bool {
	return strings.Trim(genotype, ".|/") == ""
}

// ExtractHaplotypes attaches the haplotypes of the samples to every record.
// The haplotypes follow the sample order, so entries of two records with the
// same SampleIndex belong to the same sample.
func ExtractHaplotypes(records []*GenotypeRecord, samples []string) error {
	for _, record := range records {
		record.Haplotypes = make([]Haplotype, 0, len(samples))

		for index, sample := range samples {
			genotype, ok := record.GenotypesBySample[sample]
			if !ok {
				continue
			}

			alleles, called, err := DecodeGenotype(genotype, record.Ref, record.Alt)
			if err != nil {
				decodeErr := err.(*GenotypeDecodeError)
				decodeErr.Variant = record.Id
				decodeErr.Sample = sample
				return decodeErr
			}
			if !called {
				continue
			}

			record.Haplotypes = append(record.Haplotypes, Haplotype{
				SampleIndex: index,
				Sample:      sample,
				Alleles:     alleles,
			})
		}
	}

	return nil
}
