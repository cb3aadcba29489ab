// Command qbenv builds an isolated runtime environment from a recipe and
// runs its entry process, exiting with the entry process exit code.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/viant/afs"

	"github.com/paperlab/querybot/environment"
)

func main() {
	recipeURL := flag.String("recipe", "recipe.yaml", "recipe location (any afs supported URL)")
	buildOnly := flag.Bool("build-only", false, "build the environment without running the entry process")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := afs.New()
	recipe, err := environment.LoadRecipe(ctx, fs, *recipeURL)
	if err != nil {
		log.Fatalf("failed to load recipe: %v", err)
	}
	env := environment.New(recipe, environment.WithFileSystem(fs))
	if err = env.Build(ctx); err != nil {
		log.Fatalf("build failed: %v", err)
	}
	log.Printf("environment %v built at %v", recipe.Name, recipe.Root)
	if *buildOnly {
		return
	}
	code, err := env.Run(ctx)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	os.Exit(code)
}
