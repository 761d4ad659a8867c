// pacrun runs the directional-connectivity pipeline over a synthetic
// coupled recording and prints the aggregate posterior matrix. With
// DATABASE_URL set, the run manifest is persisted to the Postgres ledger;
// PAC_EXCEL_FILE and PAC_REPORT_FILE enable file exports.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"pacbayes/adapters/excel"
	"pacbayes/adapters/mvl"
	"pacbayes/adapters/postgres"
	"pacbayes/internal/config"
	"pacbayes/internal/pipeline"
	"pacbayes/internal/report"
	"pacbayes/internal/synth"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	const (
		channels     = 4
		samplingRate = 250.0
	)
	samples := cfg.Analysis.NumFragments * 500

	bands := synth.CoupledBands(channels, samples, samplingRate, 42)
	oracle := mvl.New(42)

	p := pipeline.New(oracle, cfg.Analysis, cfg.Workers)
	outcome, err := p.Run(ctx, bands)
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	manifest, err := p.BuildManifest(outcome)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}

	fmt.Printf("run %s\n", manifest.ID)
	fmt.Printf("significant observations: %d (z-threshold %.4f)\n\n",
		manifest.Result.SignificantCount, manifest.Result.ZThreshold)

	fmt.Println("aggregate posterior P(destination|source), prevalence across fragments:")
	printMatrix(manifest.Result.Aggregate)
	fmt.Printf("\nthresholded at tau=%g:\n", cfg.Analysis.PosteriorThreshold)
	printMatrix(manifest.Thresholded)

	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("schema: %v", err)
		}
		if err := postgres.NewRunRepository(db).Save(ctx, manifest); err != nil {
			log.Fatalf("persist: %v", err)
		}
		fmt.Printf("\npersisted run %s\n", manifest.ID)
	}

	if cfg.Export.ExcelFile != "" {
		if err := excel.NewExporter().ExportFile(cfg.Export.ExcelFile, manifest); err != nil {
			log.Fatalf("excel export: %v", err)
		}
		fmt.Printf("wrote %s\n", cfg.Export.ExcelFile)
	}

	if cfg.Export.ReportFile != "" {
		dividers, counts := outcome.Model.Histogram(cfg.Analysis.NumBins)
		md := report.Markdown(manifest, outcome.Model.Summarize(), dividers, counts)
		if err := os.WriteFile(cfg.Export.ReportFile, []byte(md), 0o644); err != nil {
			log.Fatalf("report export: %v", err)
		}
		fmt.Printf("wrote %s\n", cfg.Export.ReportFile)
	}
}

func printMatrix(matrix [][]float64) {
	if len(matrix) == 0 {
		return
	}
	fmt.Printf("%8s", "d\\s")
	for x := range matrix[0] {
		fmt.Printf("%8d", x)
	}
	fmt.Println()
	for i, row := range matrix {
		fmt.Printf("%8d", i)
		for _, v := range row {
			fmt.Printf("%8.3f", v)
		}
		fmt.Println()
	}
}
