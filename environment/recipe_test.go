package environment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

func TestLoadRecipe(t *testing.T) {
	t.Setenv("QB_RECIPE_SOURCE", "/opt/src/bot")

	recipeYAML := `
name: query-bot
source: ${env.QB_RECIPE_SOURCE}
root: /opt/app
manifest: requirements.txt
entry:
  script: query_bot.py
`
	location := filepath.Join(t.TempDir(), "recipe.yaml")
	assert.NoError(t, os.WriteFile(location, []byte(recipeYAML), 0644))

	recipe, err := LoadRecipe(context.Background(), afs.New(), location)
	assert.NoError(t, err)
	assert.Equal(t, "query-bot", recipe.Name)
	assert.Equal(t, "/opt/src/bot", recipe.Source)
	assert.Equal(t, "/opt/app", recipe.Root)

	// defaults applied by Init
	assert.Equal(t, "python3", recipe.Entry.Interpreter)
	assert.Equal(t, "pip install --no-cache-dir -r ${manifest}", recipe.Install.Command)
	assert.Equal(t, "bash://localhost/", recipe.Install.Host)

	assert.Equal(t, "/opt/app/requirements.txt", recipe.ManifestURL())
}

func TestLoadRecipe_invalid(t *testing.T) {
	testCases := []struct {
		name   string
		recipe string
	}{
		{
			name:   "missing source",
			recipe: "root: /opt/app\nentry:\n  script: main.py\n",
		},
		{
			name:   "missing root",
			recipe: "source: /opt/src\nentry:\n  script: main.py\n",
		},
		{
			name:   "missing entry",
			recipe: "source: /opt/src\nroot: /opt/app\n",
		},
		{
			name:   "malformed yaml",
			recipe: "source: [\n",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			location := filepath.Join(t.TempDir(), "recipe.yaml")
			assert.NoError(t, os.WriteFile(location, []byte(tc.recipe), 0644))
			_, err := LoadRecipe(context.Background(), afs.New(), location)
			assert.Error(t, err)
		})
	}
}

func TestRecipe_ManifestURL_absent(t *testing.T) {
	recipe := &Recipe{Source: "/opt/src", Root: "/opt/app", Entry: &Entry{Script: "main.py"}}
	assert.Equal(t, "", recipe.ManifestURL())
}
