package ld_api

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/carbocation/pfx"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

// The 1000 Genomes phase 3 genotype sources
const (
	thousandGenomesGRCh37 = "https://ftp.1000genomes.ebi.ac.uk/vol1/ftp/release/20130502/ALL.chr$CHROM.phase3_shapeit2_mvncall_integrated_v5b.20130502.genotypes.vcf.gz"
	thousandGenomesGRCh38 = "https://ftp.1000genomes.ebi.ac.uk/vol1/ftp/data_collections/1000_genomes_project/release/20190312_biallelic_SNV_and_INDEL/ALL.chr$CHROM.shapeit2_integrated_snvindels_v2a_27022019.GRCh38.phased.vcf.gz"
)

// A Caser is stateful, so every call gets its own
func upper(s string) string { return cases.Upper(language.Und).String(s) }
func lower(s string) string { return cases.Lower(language.Und).String(s) }

// Read the configuration file, cast it to its struct and define the missing fields.
// An empty path returns the default configuration.
func ReadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		configFile, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open the config file: %w", err)
		}
		if err := yaml.Unmarshal(configFile, &config); err != nil {
			return nil, fmt.Errorf("failed to parse the config file: %w", err)
		}
	}

	config.defineMissing()
	return &config, nil
}

// Define all missing fields
func (config *Config) defineMissing() {
	if config.Ncbi.Endpoint == "" {
		config.Ncbi.Endpoint = DefaultNcbiEndpoint
	}
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	if config.Concurrency < 0 {
		config.Concurrency = 0
	}

	builds := map[string]GenomeBuild{}
	for name, build := range config.Builds {
		build.Assembly = lower(build.Assembly)
		if build.Assembly == "" {
			build.Assembly = lower(name)
		}
		builds[lower(name)] = build
	}
	config.Builds = builds

	if _, ok := config.Builds[AssemblyGRCh37]; !ok {
		config.Builds[AssemblyGRCh37] = GenomeBuild{
			Assembly: AssemblyGRCh37,
			Url:      thousandGenomesGRCh37,
		}
	}
	if _, ok := config.Builds[AssemblyGRCh38]; !ok {
		config.Builds[AssemblyGRCh38] = GenomeBuild{
			Assembly: AssemblyGRCh38,
			Url:      thousandGenomesGRCh38,
		}
	}

	if config.Populations == nil {
		config.Populations = map[string][]string{}
	}
}

// Build returns the genome build selected by name
func (config *Config) Build(name string) (GenomeBuild, error) {
	return lookupBuild(config.Builds, name)
}

func lookupBuild(builds map[string]GenomeBuild, name string) (GenomeBuild, error) {
	build, ok := builds[lower(name)]
	if !ok {
		return GenomeBuild{}, &ValidationError{Reason: fmt.Sprintf("unknown genome build '%s'", name)}
	}
	return build, nil
}

// Populations maps population codes to their sample identifiers
type Populations map[string][]string

// LoadPopulations combines the inline populations with the panel file
func (config *Config) LoadPopulations() (Populations, error) {
	populations := Populations{}
	for code, samples := range config.Populations {
		populations.add(code, samples...)
	}

	if config.Panel == "" {
		return populations, nil
	}

	panelFile, err := os.Open(config.Panel)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer panelFile.Close()

	if err := populations.readPanel(bufio.NewScanner(panelFile)); err != nil {
		return nil, fmt.Errorf("failed to read the panel file %s: %w", config.Panel, err)
	}
	return populations, nil
}

func (populations Populations) add(code string, samples ...string) {
	code = upper(strings.TrimSpace(code))
	populations[code] = append(populations[code], samples...)
}

// readPanel reads a 1000 Genomes panel (sample, pop, super_pop, ...). Every
// sample is a member of its population and of its super population.
func (populations Populations) readPanel(scanner *bufio.Scanner) error {
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if lineNumber == 1 && fields[0] == "sample" {
			continue
		}
		if len(fields) < 2 {
			return fmt.Errorf("line %d: expected at least a sample and a population", lineNumber)
		}

		populations.add(fields[1], fields[0])
		if len(fields) > 2 {
			populations.add(fields[2], fields[0])
		}
	}
	return scanner.Err()
}

// Samples returns the deduplicated union of the samples of the populations,
// in order of first appearance
func (populations Populations) Samples(codes []string) ([]string, error) {
	seen := map[string]struct{}{}
	samples := []string{}

	for _, code := range codes {
		members, ok := populations[upper(strings.TrimSpace(code))]
		if !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("unknown population '%s'", code)}
		}
		for _, sample := range members {
			if _, dup := seen[sample]; dup {
				continue
			}
			seen[sample] = struct{}{}
			samples = append(samples, sample)
		}
	}

	return samples, nil
}
