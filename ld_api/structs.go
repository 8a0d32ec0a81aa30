package ld_api

// The struct representing the header of a genotype (VCF) source in a parseable format
type Header struct {
	// Object containing the FORMAT fields with their ID, Number, Type and Description
	// The ID is the key of the map
	Format map[string]HeaderLineIdNumberTypeDescription

	// List of all contigs in the VCF file with their ID and Length
	Contig []HeaderLineIdLength

	// List of all samples in the VCF file, in column order
	Samples []string
}

// A struct representing a header line with its ID, Number, Type and Description
type HeaderLineIdNumberTypeDescription struct {
	// The ID of the header line
	Id string

	// The number of values in the header line
	// Can be any integer, "A", "G", "R" or "."
	Number string

	// The type of the header line
	// Can be "Integer", "Float", "Flag", "String" or "Character"
	Type string

	// The description of the header line
	Description string
}

// A struct representing a contig header line with its ID and Length
type HeaderLineIdLength struct {
	// The ID of the contig
	Id string

	// The length of the contig, 0 when the header does not declare it
	Length int64
}

// A variant identifier resolved to genomic coordinates
type VariantQuery struct {
	// The external identifier of the variant (e.g. rs1234)
	Id string

	// The chromosome the variant is located on, without a "chr" prefix
	Chromosome string

	// The 1-based position of the variant for each assembly
	// The assembly name (grch37, grch38) is the key of the map
	PositionByAssembly map[string]int64
}

// A biallelic variant record taken from a genotype source
type GenotypeRecord struct {
	// The ID of the variant, defaults to the query ID when the source has none
	Id string

	// The chromosome of the variant
	Chromosome string

	// The 1-based position of the variant
	Position int64

	// The reference allele of the variant
	Ref string

	// The single alternate allele of the variant
	Alt string

	// The raw GT value of every sample in the source
	// The sample name is the key of the map
	GenotypesBySample map[string]string

	// The decoded haplotype pairs, in sample set order
	// Only samples with a decodable call are present
	Haplotypes []Haplotype
}

// The two phased alleles a sample carries at one variant
type Haplotype struct {
	// The index of the sample in the requested sample set
	// Entries of two records with the same index belong to the same sample
	SampleIndex int

	// The sample name
	Sample string

	// The allele on each chromosome copy
	Alleles [2]string
}

// The LD statistics of one variant pair
type PairwiseLDResult struct {
	// The ID of the first variant
	VariantA string `json:"variantA"`

	// The ID of the second variant
	VariantB string `json:"variantB"`

	// The normalized LD coefficient
	DPrime float64 `json:"dPrime"`

	// The squared correlation coefficient
	RSquared float64 `json:"rSquared"`
}

//
// Config structs
//

// The struct representing the configuration file
// The config file is a YAML file
type Config struct {
	// The NCBI E-utilities settings used to resolve rsids
	Ncbi NcbiConfig

	// Path to a SQLite dbSNP extract, used instead of NCBI when set
	CoordinatesDb string `yaml:"coordinates_db"`

	// The genome builds that can be selected
	// The build name is the key of the map
	Builds map[string]GenomeBuild

	// Inline population definitions
	// The population code is the key of the map
	Populations map[string][]string

	// Path to a 1000 Genomes style panel file (sample, pop, super_pop)
	Panel string

	// The number of bases searched on each side of a variant
	Window int64

	// The maximum number of concurrent variant lookups
	// 0 or 1 means the lookups run sequentially
	Concurrency int
}

// A struct representing the NCBI E-utilities configuration
type NcbiConfig struct {
	// The esummary endpoint
	Endpoint string

	// Optional API key, raises the NCBI rate limit
	ApiKey string `yaml:"api_key"`
}

// A struct representing a selectable genome build
type GenomeBuild struct {
	// The assembly the positions are looked up in (grch37 or grch38)
	Assembly string

	// The location of the genotype source
	// $CHROM is replaced by the chromosome of the variants
	Url string
}
