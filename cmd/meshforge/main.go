// Command meshforge converts TXT point-cloud captures into binary STL
// surface meshes. Default mode converts the files given as arguments;
// -listen starts the HTTP conversion server instead.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/meshforge/internal/api"
	"github.com/banshee-data/meshforge/internal/config"
	"github.com/banshee-data/meshforge/internal/recon"
	"github.com/banshee-data/meshforge/internal/storage"
)

var (
	outputDir  = flag.String("o", "", "output directory (default: current directory)")
	outputName = flag.String("name", "", "output STL file name (default: timestamped)")
	jsonOut    = flag.String("json", "", "write the conversion result as JSON to this file")
	configPath = flag.String("config", "", "path to a JSON tuning config")
	dbFile     = flag.String("db", "", "sqlite file recording run history (optional)")
	migrateDir = flag.String("migrate", "", "apply schema migrations from this directory and exit (requires -db)")
	listen     = flag.String("listen", "", "start the HTTP conversion server on this address instead of converting")
	seed       = flag.Int64("seed", 0, "random seed for deterministic runs (0 = time-based)")
	plotDir    = flag.String("debug-plots", "", "write per-plane projection PNGs to this directory")
	maxPlanes  = flag.Int("max-planes", -1, "override the maximum number of planes to extract")
)

func main() {
	flag.Parse()

	params := recon.DefaultParams()
	if *configPath != "" {
		tc, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		tc.Apply(&params)
	}
	if *seed != 0 {
		params.Seed = *seed
	}
	if *maxPlanes >= 0 {
		params.MaxPlanes = *maxPlanes
	}

	var db *storage.DB
	if *dbFile != "" {
		var err error
		db, err = storage.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open run database: %v", err)
		}
		defer db.Close()
	}

	if *migrateDir != "" {
		if db == nil {
			log.Fatal("-migrate requires -db")
		}
		if err := runMigrations(db, *migrateDir); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	if *listen != "" {
		serve(*listen, db, params)
		return
	}

	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: meshforge [flags] input.txt [input2.txt ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	conv := recon.NewConverter(params, nil)
	conv.DebugPlotDir = *plotDir
	result := conv.Convert(inputs, *outputDir, *outputName)

	if db != nil {
		if _, err := db.RecordRun(strings.Join(inputs, ","), result); err != nil {
			log.Printf("Failed to record run: %v", err)
		}
	}
	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, result); err != nil {
			log.Printf("Failed to write JSON result: %v", err)
		}
	}

	if result.Success {
		fmt.Printf("Conversion succeeded\n")
		fmt.Printf("  output:    %s\n", result.OutputPath)
		fmt.Printf("  points:    %d\n", result.OriginalPoints)
		fmt.Printf("  planes:    %d\n", result.PlanesDetected)
		fmt.Printf("  triangles: %d\n", result.FinalTriangles)
		fmt.Printf("  vertices:  %d\n", result.FinalVertices)
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "Conversion failed: %s\n", result.Error)
	os.Exit(1)
}

// runMigrations applies pending schema migrations and logs the
// resulting version.
func runMigrations(db *storage.DB, dir string) error {
	if err := db.MigrateUp(dir); err != nil {
		return err
	}
	version, dirty, err := db.MigrateVersion(dir)
	if err != nil {
		return err
	}
	log.Printf("Schema at version %d (dirty=%v)", version, dirty)
	return nil
}

func writeJSON(path string, result recon.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// serve runs the HTTP conversion server until SIGINT/SIGTERM.
func serve(addr string, db *storage.DB, params recon.Params) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewServer(db, params).ServeMux(),
	}
	go func() {
		log.Printf("Serving conversion API on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
