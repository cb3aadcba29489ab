// Command querybot runs the Telegram query bot until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/paperlab/querybot"
)

func main() {
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
	if err = service.Vector().EnsureIndex(ctx); err != nil {
		log.Fatalf("failed to prepare vector index: %v", err)
	}
	aBot, err := service.Bot(ctx)
	if err != nil {
		log.Fatalf("failed to build bot: %v", err)
	}
	if err = aBot.Run(ctx); err != nil {
		log.Fatalf("bot stopped with error: %v", err)
	}
}
