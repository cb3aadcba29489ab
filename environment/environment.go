package environment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/paperlab/querybot/tracing"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// State of an environment. The only transitions are
// BUILDING -> BUILT | BUILD_FAILED and BUILT -> RUNNING -> EXITED.
type State string

const (
	StateCreated     State = "CREATED"
	StateBuilding    State = "BUILDING"
	StateBuilt       State = "BUILT"
	StateBuildFailed State = "BUILD_FAILED"
	StateRunning     State = "RUNNING"
	StateExited      State = "EXITED"
)

// Environment is a single build-then-run instance of a recipe. It is
// discarded once the entry process exits.
type Environment struct {
	recipe    *Recipe
	fs        afs.Service
	installer Installer

	mux      sync.RWMutex
	state    State
	exitCode int
}

// Option customises an Environment.
type Option func(*Environment)

// WithFileSystem overrides the file system service (e.g. for mem:// tests).
func WithFileSystem(fs afs.Service) Option {
	return func(e *Environment) { e.fs = fs }
}

// WithInstaller overrides the dependency installer.
func WithInstaller(installer Installer) Option {
	return func(e *Environment) { e.installer = installer }
}

// New creates an environment for the supplied recipe.
func New(recipe *Recipe, options ...Option) *Environment {
	ret := &Environment{recipe: recipe, state: StateCreated}
	for _, option := range options {
		option(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.installer == nil {
		ret.installer = NewInstaller()
	}
	return ret
}

// Recipe returns the recipe this environment was created from.
func (e *Environment) Recipe() *Recipe { return e.recipe }

// State returns the current lifecycle state.
func (e *Environment) State() State {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.state
}

// ExitCode returns the entry process exit code; valid once State is EXITED.
func (e *Environment) ExitCode() int {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.exitCode
}

func (e *Environment) setState(state State) {
	e.mux.Lock()
	e.state = state
	e.mux.Unlock()
}

// HasManifest reports whether the dependency manifest exists at its fixed
// location inside the root. It is a pure existence check; absence is not an
// error.
func (e *Environment) HasManifest(ctx context.Context) (bool, error) {
	manifestURL := e.recipe.ManifestURL()
	if manifestURL == "" {
		return false, nil
	}
	return e.fs.Exists(ctx, manifestURL)
}

// Build materialises the root: it copies the source tree verbatim, then runs
// the install step only when the manifest exists. Any failure is returned as
// a *BuildError and leaves the environment in BUILD_FAILED.
func (e *Environment) Build(ctx context.Context) (err error) {
	ctx, span := tracing.StartSpan(ctx, "environment.Build", "INTERNAL")
	defer tracing.EndSpan(span, err)
	span.WithAttributes(map[string]string{"recipe.source": e.recipe.Source, "recipe.root": e.recipe.Root})

	e.setState(StateBuilding)
	if err = e.build(ctx); err != nil {
		e.setState(StateBuildFailed)
		return err
	}
	e.setState(StateBuilt)
	return nil
}

func (e *Environment) build(ctx context.Context) error {
	exists, err := e.fs.Exists(ctx, e.recipe.Source)
	if err != nil {
		return &BuildError{Stage: StageSource, Err: err}
	}
	if !exists {
		return &BuildError{Stage: StageSource, Err: fmt.Errorf("source directory does not exist: %v", e.recipe.Source)}
	}

	if err = e.fs.Copy(ctx, e.recipe.Source, e.recipe.Root); err != nil {
		return &BuildError{Stage: StageCopy, Err: err}
	}

	hasManifest, err := e.HasManifest(ctx)
	if err != nil {
		return &BuildError{Stage: StageManifest, Err: err}
	}
	if !hasManifest {
		// No manifest, no install step. This is the only branch in a build.
		return nil
	}
	return e.install(ctx)
}

func (e *Environment) install(ctx context.Context) error {
	manifestURL := e.recipe.ManifestURL()
	data, err := e.fs.DownloadWithURL(ctx, manifestURL)
	if err != nil {
		return &BuildError{Stage: StageManifest, Err: err}
	}
	if _, err = ParseManifest(data); err != nil {
		return &BuildError{Stage: StageManifest, Err: err}
	}

	install := e.recipe.Install
	command := strings.ReplaceAll(install.Command, "${manifest}", url.Path(manifestURL))
	result, err := e.installer.Run(ctx, &InstallRequest{
		Host:      install.Host,
		Dir:       url.Path(e.recipe.Root),
		Command:   command,
		Env:       e.recipe.Env,
		TimeoutMs: install.TimeoutMs,
	})
	if err != nil {
		return &BuildError{Stage: StageInstall, Err: err}
	}
	if result.Status != 0 {
		return &BuildError{Stage: StageInstall, Err: fmt.Errorf("installer exited with status %v: %v", result.Status, result.Stderr)}
	}
	return nil
}
