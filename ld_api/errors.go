package ld_api

import (
	"fmt"
	"strings"
)

// ValidationError is returned when the request cannot be processed as a whole
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Reason
}

// LookupError is returned when an identifier cannot be resolved to coordinates
type LookupError struct {
	Id     string
	Reason string
	Err    error
}

func (e *LookupError) Error() string {
	msg := "lookup error"
	if e.Id != "" {
		msg += " for " + e.Id
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// MissingVariantError lists the variants without a biallelic record in the search window
type MissingVariantError struct {
	Ids []string
}

func (e *MissingVariantError) Error() string {
	return fmt.Sprintf("no biallelic record found for %s", strings.Join(e.Ids, ", "))
}

// GenotypeDecodeError is returned for a call that is not one of the four phased biallelic encodings
type GenotypeDecodeError struct {
	Variant  string
	Sample   string
	Genotype string
}

func (e *GenotypeDecodeError) Error() string {
	return fmt.Sprintf("unexpected genotype '%s' for sample %s at %s", e.Genotype, e.Sample, e.Variant)
}
