// Command study runs one operational study from the command line and writes
// the report bundle to a zip file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"go.ngs.io/opstudy/internal/adapter/store/csv"
	"go.ngs.io/opstudy/internal/adapter/store/objects"
	"go.ngs.io/opstudy/internal/adapter/weather"
	"go.ngs.io/opstudy/internal/config"
	"go.ngs.io/opstudy/internal/domain"
	"go.ngs.io/opstudy/internal/report"
	"go.ngs.io/opstudy/internal/usecase"
)

const version = "0.1.0"

var (
	labelColor   = color.New(color.FgCyan)
	okColor      = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func main() {
	airport := flag.String("airport", "", "ICAO airport code (e.g. LEMD)")
	runway := flag.String("runway", "", "Runway designator (e.g. 32L)")
	dates := flag.String("dates", "", "Study period YYYY-MM-DD/YYYY-MM-DD (inclusive)")
	current := flag.String("current", "", "Current decision heights in ft for CAT A,B,C,D")
	proposed := flag.String("proposed", "", "Proposed decision heights in ft for CAT A,B,C,D")
	name := flag.String("name", "", "Study name (default: AIRPORT RUNWAY)")
	effective := flag.String("effective", "", "Effective date label (default: current month)")
	output := flag.String("output", ".", "Directory for the zip bundle")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("study version %s\n", version)
		return
	}

	req, err := buildRequest(*airport, *runway, *dates, *current, *proposed)
	if err != nil {
		fail("%v", err)
	}
	req.Name = *name
	req.EffectiveDate = *effective

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	path, err := run(ctx, config.Load(), req, *output)
	if err != nil {
		fail("%v", err)
	}
	okColor.Printf("Bundle written to %s\n", path)
}

func run(ctx context.Context, cfg *config.Config, req usecase.StudyRequest, outDir string) (string, error) {
	src, err := objects.New(ctx, cfg.DataDir, cfg.GCSBucket, cfg.ObjectPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to open object source: %w", err)
	}
	defer func() { _ = src.Close() }()
	csvStore := csv.NewStore(src)

	var sessionOpts []usecase.SessionOption
	if cfg.SnapshotPath != "" {
		sessionOpts = append(sessionOpts, usecase.WithSnapshot(cfg.SnapshotPath, cfg.SnapshotMaxAge))
	}
	session := usecase.NewSession(csvStore, csvStore, sessionOpts...)
	weatherClient := weather.NewClient(weather.WithBaseURL(cfg.IEMBaseURL))
	uc := usecase.NewStudyUseCase(session, weatherClient, csvStore)

	result, err := uc.Execute(ctx, req)
	if err != nil {
		return "", err
	}

	printSummary(result)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	fileName := strings.Trim(unsafeName.ReplaceAllString(result.Config.Name, "_"), "_")
	if fileName == "" {
		fileName = result.Config.ID
	}
	path := filepath.Join(outDir, fileName+".zip")

	//nolint:gosec // G304: output path is chosen by the operator.
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.WriteZip(f, result.Bundle()); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write bundle: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

func buildRequest(airport, runway, dates, current, proposed string) (usecase.StudyRequest, error) {
	var req usecase.StudyRequest
	if airport == "" || runway == "" || dates == "" || current == "" || proposed == "" {
		return req, fmt.Errorf("-airport, -runway, -dates, -current and -proposed are required (see -help)")
	}
	req.Airport = airport
	req.Runway = runway

	startStr, endStr, ok := strings.Cut(dates, "/")
	if !ok {
		return req, fmt.Errorf("invalid -dates %q: expected START/END", dates)
	}
	var err error
	if req.Start, err = time.Parse("2006-01-02", strings.TrimSpace(startStr)); err != nil {
		return req, fmt.Errorf("invalid start date: %w", err)
	}
	if req.End, err = time.Parse("2006-01-02", strings.TrimSpace(endStr)); err != nil {
		return req, fmt.Errorf("invalid end date: %w", err)
	}

	if req.Current, err = parseMinima(current); err != nil {
		return req, fmt.Errorf("invalid -current: %w", err)
	}
	if req.Proposed, err = parseMinima(proposed); err != nil {
		return req, fmt.Errorf("invalid -proposed: %w", err)
	}
	return req, nil
}

func parseMinima(s string) ([4]float64, error) {
	var out [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != len(out) {
		return out, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

func printSummary(r *usecase.StudyResult) {
	c := r.Config
	labelColor.Printf("Study:     ")
	fmt.Println(c.Name)
	labelColor.Printf("Airport:   ")
	fmt.Printf("%s %s (%s)\n", c.Airport, c.Runway, c.Lighting)
	labelColor.Printf("Period:    ")
	fmt.Printf("%s to %s\n", c.Start.Format("2006-01-02"), c.End.Format("2006-01-02"))
	labelColor.Printf("RVR (m):   ")
	fmt.Printf("current %s, proposed %s\n", formatRVR(c.Minima.Current), formatRVR(c.Minima.Proposed))
	labelColor.Printf("Rows:      ")
	fmt.Printf("%d observations, %d on runway, %d arrivals, %d go-arounds\n",
		len(r.Merged), len(r.Runway), len(r.Traffic), len(r.GoArounds))

	for _, w := range r.Warnings {
		warningColor.Printf("warning: %s\n", w)
	}
}

func formatRVR(t [4]domain.Threshold) string {
	parts := make([]string, len(t))
	for i, th := range t {
		parts[i] = strconv.FormatFloat(th.VisibilityM, 'f', -1, 64)
	}
	return strings.Join(parts, "/")
}

func fail(format string, args ...any) {
	errorColor.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Printf("Operational Study CLI v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  study -airport ICAO -runway RWY -dates START/END -current A,B,C,D -proposed A,B,C,D [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Tables are read from DATA_DIR or GCS_BUCKET, as for the server.")
	fmt.Println()
	fmt.Println("EXAMPLE:")
	fmt.Println("  study -airport LEMD -runway 32L -dates 2023-01-01/2023-03-31 \\")
	fmt.Println("        -current 200,200,200,200 -proposed 250,250,250,250 -output out/")
	fmt.Println()
}
