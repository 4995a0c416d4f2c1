// Command watch polls a single try-on job until it reaches a terminal
// status, mirroring what the mobile client does after submitting a job.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tryon/internal/infra"
	"tryon/internal/poller"
	"tryon/internal/store"
)

func main() {
	jobID := flag.String("job", "", "try-on job id to watch")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if *jobID == "" {
		fmt.Fprintln(os.Stderr, "usage: watch -job <try-on job id>")
		os.Exit(2)
	}

	documents := store.NewClient(store.Options{
		Endpoint:        cfg.StoreEndpoint,
		ProjectID:       cfg.TenantID,
		APIKey:          cfg.StoreAPIKey,
		DatabaseID:      cfg.DatabaseID,
		Logger:          &logger,
		ProductCacheTTL: cfg.ProductCacheTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := poller.New(documents.GetTryOn, cfg.JobPollInterval, logger)
	job, err := watcher.Wait(ctx, *jobID)
	if err != nil {
		logger.Fatal().Err(err).Msg("watch: polling aborted")
	}

	fmt.Printf("status: %s\n", job.Status)
	for _, u := range job.ResultImageURLs {
		fmt.Println(u)
	}
	if job.ErrorMessage != "" {
		fmt.Printf("error: %s\n", job.ErrorMessage)
	}
}
