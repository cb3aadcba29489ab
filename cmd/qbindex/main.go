// Command qbindex runs the article indexing pipeline: it crawls listing
// pages, condenses each article with the language model and stores the
// embeddings in the vector index.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/paperlab/querybot"
)

func main() {
	pages := flag.Int("pages", 1, "number of listing pages to crawl")
	pullModels := flag.Bool("pull-models", false, "pull missing Ollama models before starting")
	tracingFile := flag.String("tracing", "", "write OpenTelemetry spans to this file ('-' for stdout)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var options []querybot.Option
	if *tracingFile != "" {
		output := *tracingFile
		if output == "-" {
			output = ""
		}
		options = append(options, querybot.WithTracing(output))
	}

	service, err := querybot.New(ctx, options...)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	if err = service.Ollama().CheckConnection(ctx); err != nil {
		log.Fatalf("ollama is not reachable: %v", err)
	}
	if *pullModels {
		if err = service.Ollama().EnsureModels(ctx); err != nil {
			log.Fatalf("failed to pull models: %v", err)
		}
	}
	if err = service.Vector().EnsureIndex(ctx); err != nil {
		log.Fatalf("failed to prepare vector index: %v", err)
	}

	stats, err := service.Pipeline().Run(ctx, *pages)
	if err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}
	report, _ := json.MarshalIndent(stats, "", "  ")
	log.Printf("pipeline finished:\n%s", report)
}
