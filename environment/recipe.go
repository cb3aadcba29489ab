package environment

import (
	"context"
	"fmt"

	"github.com/paperlab/querybot/config"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Recipe declares how to build and start an environment. String fields
// support ${env.KEY} expansion so that recipes stay free of inline secrets.
type Recipe struct {
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Source string `yaml:"source" json:"source"`
	Root   string `yaml:"root" json:"root"`

	// Manifest is the dependency manifest file name, relative to Root. When
	// empty or when the file is absent the install step is skipped.
	Manifest string `yaml:"manifest,omitempty" json:"manifest,omitempty"`

	Install *Install `yaml:"install,omitempty" json:"install,omitempty"`
	Entry   *Entry   `yaml:"entry" json:"entry"`

	// Env is passed to the install step and the entry process in addition to
	// the inherited environment.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// Install describes the dependency installation step. The ${manifest}
// placeholder in Command is replaced with the manifest location.
type Install struct {
	Command string `yaml:"command,omitempty" json:"command,omitempty"`
	// Host selects where the command runs; defaults to bash://localhost/.
	// A ssh:// host is supported for remote roots.
	Host      string `yaml:"host,omitempty" json:"host,omitempty"`
	TimeoutMs int    `yaml:"timeoutMs,omitempty" json:"timeoutMs,omitempty"`
}

// Entry is the fixed command line of the sole foreground process.
type Entry struct {
	Interpreter string `yaml:"interpreter" json:"interpreter"`
	Script      string `yaml:"script" json:"script"`
}

// Init applies defaults.
func (r *Recipe) Init() {
	if r.Install == nil {
		r.Install = &Install{}
	}
	if r.Install.Command == "" {
		r.Install.Command = "pip install --no-cache-dir -r ${manifest}"
	}
	if r.Install.Host == "" {
		r.Install.Host = "bash://localhost/"
	}
	if r.Install.TimeoutMs == 0 {
		r.Install.TimeoutMs = 300000
	}
	if r.Entry != nil && r.Entry.Interpreter == "" {
		r.Entry.Interpreter = "python3"
	}
}

// Validate returns an error describing the first missing required field.
func (r *Recipe) Validate() error {
	if r.Source == "" {
		return fmt.Errorf("recipe source is required")
	}
	if r.Root == "" {
		return fmt.Errorf("recipe root is required")
	}
	if r.Entry == nil || r.Entry.Script == "" {
		return fmt.Errorf("recipe entry script is required")
	}
	return nil
}

// ManifestURL returns the fixed manifest location inside the root, or empty
// when the recipe declares no manifest.
func (r *Recipe) ManifestURL() string {
	if r.Manifest == "" {
		return ""
	}
	return url.Join(r.Root, r.Manifest)
}

// LoadRecipe reads, expands and validates a recipe from any supported
// storage scheme.
func LoadRecipe(ctx context.Context, fs afs.Service, URL string) (*Recipe, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe %v: %w", URL, err)
	}
	recipe := &Recipe{}
	if err = yaml.Unmarshal([]byte(config.ExpandEnv(string(data))), recipe); err != nil {
		return nil, fmt.Errorf("failed to decode recipe %v: %w", URL, err)
	}
	recipe.Init()
	if err = recipe.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recipe %v: %w", URL, err)
	}
	return recipe, nil
}
