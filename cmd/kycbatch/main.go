// Command kycbatch runs the onboarding pipeline over local files without the
// API, queue, or database: useful for one-off compliance reviews and for
// checking a policy file against a known document set.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/complyon/kyc-pipeline/internal/config"
	"github.com/complyon/kyc-pipeline/internal/core/domain"
	"github.com/complyon/kyc-pipeline/internal/core/usecase"
	"github.com/complyon/kyc-pipeline/internal/infrastructure/extractor/content"
	"github.com/complyon/kyc-pipeline/internal/infrastructure/llm/openai"
	"github.com/complyon/kyc-pipeline/internal/infrastructure/storage/localfs"
	"github.com/complyon/kyc-pipeline/internal/observability/logging"
)

func main() {
	outputDir := flag.String("out", "", "directory for the package JSON (defaults to OUTPUT_PATH)")
	policyPath := flag.String("policy", "", "policy YAML file (defaults to POLICY_PATH)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: kycbatch [-out dir] [-policy file] file...")
		os.Exit(2)
	}

	cfg := config.Load()
	if *outputDir != "" {
		cfg.OutputPath = *outputDir
	}
	if *policyPath != "" {
		cfg.PolicyPath = *policyPath
	}
	logger := logging.NewJSONLogger("kycbatch", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pkg, err := run(ctx, cfg, logger, flag.Args())
	if err != nil {
		log.Fatalf("kycbatch: %v", err)
	}

	outPath, err := writePackage(cfg.OutputPath, pkg)
	if err != nil {
		log.Fatalf("kycbatch: write package: %v", err)
	}

	printSummary(os.Stdout, pkg, outPath)
	if pkg.AggregateStatus != domain.AggregateCompleted {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, paths []string) (*domain.ProcessingPackage, error) {
	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(paths))
	readable := 0
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		doc, statErr := storage.Stat(ctx, abs)
		if statErr != nil {
			logger.Warn("input_unreadable", "file", path, "error", statErr)
			doc = domain.Document{FileName: filepath.Base(path), Path: abs, StoragePath: abs}
		} else {
			readable++
		}
		doc.ID = doc.FileName
		doc.Category = usecase.ClassifyFile(doc.FileName)
		docs = append(docs, doc)
	}
	if readable == 0 {
		return nil, fmt.Errorf("no readable input files")
	}

	fieldClient := openai.New(openai.Config{
		BaseURL:        cfg.FieldServiceURL,
		APIKey:         cfg.FieldServiceAPIKey,
		Model:          cfg.FieldServiceModel,
		CallTimeout:    time.Duration(cfg.FieldTimeoutSeconds) * time.Second,
		MaxRetries:     cfg.FieldMaxRetries,
		CallsPerSecond: cfg.FieldCallsPerSecond,
	})

	pipeline := usecase.NewDocumentPipeline(
		content.NewExtractor(storage, cfg.SnippetMaxChars, logger),
		fieldClient,
		usecase.NewValidator(policy.Quality),
		usecase.NewScorer(policy.Risk),
		usecase.NewRouter(policy.Quality),
		logger,
	)

	uc := usecase.NewBatchUseCase(
		nil, // no repository in CLI mode; ProcessDocuments never touches it
		storage,
		pipeline,
		nil,
		logger,
		cfg.WorkerCount,
		time.Duration(cfg.BatchTimeoutSeconds)*time.Second,
	)
	return uc.ProcessDocuments(ctx, docs)
}

func writePackage(dir string, pkg *domain.ProcessingPackage) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, pkg.PackageID+".json")
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func printSummary(w io.Writer, pkg *domain.ProcessingPackage, outPath string) {
	fmt.Fprintf(w, "Package %s (%s)\n", pkg.PackageID, pkg.AggregateStatus)
	fmt.Fprintf(w, "Files: %d (documents=%d images=%d other=%d)\n",
		pkg.TotalFiles, pkg.FileCategories.Documents, pkg.FileCategories.Images, pkg.FileCategories.Other)
	if pkg.FieldServiceState != domain.FieldServiceOK {
		fmt.Fprintf(w, "Field service: %s\n", pkg.FieldServiceState)
	}

	routeCounts := map[domain.Route]int{}
	for _, result := range pkg.Results {
		fmt.Fprintf(w, "  %-40s %s", result.Document.FileName, result.Status)
		if result.Risk != nil {
			fmt.Fprintf(w, "  risk=%s(%.1f)", result.Risk.RiskLevel, result.Risk.RiskScore)
		}
		if result.Routing != nil {
			routeCounts[result.Routing.Route]++
			fmt.Fprintf(w, "  -> %s", result.Routing.Route)
		}
		if result.Error != "" {
			fmt.Fprintf(w, "  (%s)", result.Error)
		}
		fmt.Fprintln(w)
	}

	for _, route := range []domain.Route{
		domain.RouteAutoApprove,
		domain.RouteAdditionalVerification,
		domain.RouteManualReview,
		domain.RouteErrorResolution,
	} {
		if n := routeCounts[route]; n > 0 {
			fmt.Fprintf(w, "%s: %d\n", route, n)
		}
	}
	fmt.Fprintf(w, "Written to %s\n", outPath)
}
