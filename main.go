package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"shortforge/internal"
	"shortforge/internal/pipeline"
)

// niches is the static set of recurring uploads; each entry fires once
// per day at the configured local time.
var niches = []pipeline.NicheConfig{
	{Niche: "fitness", Query: "exercise motivation", Hour: 17, Minute: 0},
	{Niche: "cooking", Query: "kitchen hacks", Hour: 9, Minute: 30},
}

func main() {
	once := flag.String("once", "", "run a single pipeline pass for the named niche and exit")
	flag.Parse()

	// .env loading is a local-dev convenience; a missing file is fine.
	_ = godotenv.Load()

	config, err := internal.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration - %v\n", err)
	}

	app, err := internal.New(config)
	if err != nil {
		log.Fatalf("Failed to initialise application - %v\n", err)
	}

	if *once != "" {
		runOnce(app, *once)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, niches); err != nil {
		log.Fatalf("Scheduler failed - %v\n", err)
	}
}

func runOnce(app *internal.App, nicheName string) {
	for _, niche := range niches {
		if niche.Niche != nicheName {
			continue
		}

		videoID, err := app.RunOnce(context.Background(), niche)
		if err != nil {
			log.Fatalf("Pipeline run failed - %v\n", err)
		}

		fmt.Printf("Uploaded video %s\n", videoID)
		return
	}

	log.Fatalf("Unknown niche %q\n", nicheName)
}
