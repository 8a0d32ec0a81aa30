package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/park-brian/linkage-disequilibrium/ld_api"
	cli "github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:            "ldmatrix",
		Usage:           "Calculate pairwise linkage disequilibrium (D' and r²) between variants",
		HideHelpCommand: true,
		Version:         "0.1.0dev",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "snps",
				Aliases:  []string{"s"},
				Usage:    "The variant identifiers (rsids) to compare, can also be given as arguments",
				Category: "Required",
			},
			&cli.StringSliceFlag{
				Name:     "populations",
				Aliases:  []string{"p"},
				Usage:    "The populations whose samples are used (e.g. CEU, YRI, EUR)",
				Required: true,
				Category: "Required",
			},
			&cli.StringFlag{
				Name:     "genome-build",
				Aliases:  []string{"g"},
				Usage:    "The genome build to use, one of the builds in the configuration (grch37, grch38 by default)",
				Value:    "grch37",
				Category: "Optional",
			},
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Configuration file (YAML) with the genome builds and populations",
				Category: "Optional",
			},
			&cli.StringFlag{
				Name:     "panel",
				Usage:    "A 1000 Genomes panel file mapping samples to populations, overrides the configuration",
				Category: "Optional",
			},
			&cli.StringFlag{
				Name:     "coordinates-db",
				Usage:    "A SQLite coordinate database to resolve rsids with instead of NCBI",
				Category: "Optional",
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Write <output>.dprime.txt and <output>.rsquared.txt instead of printing to stdout",
				Category: "Optional",
			},
			&cli.StringFlag{
				Name:     "format",
				Aliases:  []string{"f"},
				Usage:    "The format printed to stdout. Must be one of: table, json",
				Value:    "table",
				Category: "Optional",
				Action: func(c *cli.Context, input string) error {
					return validateChoice("format", input, []string{"table", "json"})
				},
			},
			&cli.IntFlag{
				Name:     "concurrency",
				Aliases:  []string{"j"},
				Usage:    "The number of variants looked up at the same time, 1 looks them up one by one",
				Value:    1,
				Category: "Optional",
			},
			&cli.StringFlag{
				Name:     "undefined",
				Usage:    "How undefined statistics are reported. Must be one of: max (1.0), nan",
				Value:    "max",
				Category: "Optional",
				Action: func(c *cli.Context, input string) error {
					return validateChoice("undefined", input, []string{"max", "nan"})
				},
			},
			&cli.BoolFlag{
				Name:     "mute-warnings",
				Aliases:  []string{"mw"},
				Usage:    "Don't print progress and warning messages",
				Category: "Optional",
			},
		},
		Action: runMatrix,
		Commands: []*cli.Command{
			{
				Name:  "import-coordinates",
				Usage: "Load a tab separated rsid, chromosome, GRCh37 and GRCh38 position file into a SQLite coordinate database",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Usage:    "The SQLite database to create or update",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "The tab separated coordinate file",
						Required: true,
					},
				},
				Action: importCoordinates,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.New(os.Stderr, "", 0).Fatal(err)
	}
}

func validateChoice(flag string, input string, choices []string) error {
	if slices.Contains(choices, input) {
		return nil
	}
	return cli.Exit("Invalid "+flag+" '"+input+"', must be one of: "+strings.Join(choices, ", "), 1)
}

func runMatrix(Cctx *cli.Context) error {
	logger := log.New(os.Stderr, "", 0)
	if Cctx.Bool("mute-warnings") {
		ld_api.MuteWarnings()
	}

	config, err := ld_api.ReadConfig(Cctx.String("config"))
	if err != nil {
		return err
	}
	if Cctx.IsSet("panel") {
		config.Panel = Cctx.String("panel")
	}
	if Cctx.IsSet("coordinates-db") {
		config.CoordinatesDb = Cctx.String("coordinates-db")
	}
	if Cctx.IsSet("concurrency") || config.Concurrency == 0 {
		config.Concurrency = Cctx.Int("concurrency")
	}

	if _, err := config.Build(Cctx.String("genome-build")); err != nil {
		return err
	}

	pipeline, closePipeline, err := ld_api.NewPipeline(config)
	if err != nil {
		return err
	}
	defer closePipeline()

	if Cctx.String("undefined") == "nan" {
		pipeline.Sentinel = ld_api.SentinelUndefined
	}

	snps := append(Cctx.StringSlice("snps"), Cctx.Args().Slice()...)
	result, err := pipeline.Run(Cctx.Context, ld_api.Request{
		Ids:         snps,
		Populations: Cctx.StringSlice("populations"),
		GenomeBuild: Cctx.String("genome-build"),
	})
	if err != nil {
		return err
	}

	if output := Cctx.String("output"); output != "" {
		files, err := ld_api.WriteExports(output, result.Matrix)
		if err != nil {
			return err
		}
		if !Cctx.Bool("mute-warnings") {
			logger.Printf("Wrote %s", strings.Join(files, ", "))
		}
		return nil
	}

	if Cctx.String("format") == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result.Matrix)
	}
	return ld_api.WriteTable(os.Stdout, result.Matrix.Table())
}

func importCoordinates(Cctx *cli.Context) error {
	resolver, err := ld_api.OpenCoordinateDb(Cctx.String("db"))
	if err != nil {
		return err
	}
	defer resolver.Close()

	input, err := os.Open(Cctx.String("input"))
	if err != nil {
		return err
	}
	defer input.Close()

	count, err := resolver.ImportCoordinates(Cctx.Context, input)
	if err != nil {
		return err
	}
	log.New(os.Stderr, "", 0).Printf("Imported %d variants into %s (%s driver)", count, Cctx.String("db"), ld_api.WhichSQLiteDriver())
	return nil
}
