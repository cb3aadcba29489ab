package environment

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBuiltEnvironment(t *testing.T, script string) *Environment {
	t.Helper()
	source := newTestSource(t, map[string]string{"main.sh": script})
	env := New(&Recipe{
		Source: source,
		Root:   filepath.Join(t.TempDir(), "root"),
		Entry:  &Entry{Interpreter: "/bin/sh", Script: "main.sh"},
	}, WithInstaller(&recordingInstaller{}))
	assert.NoError(t, env.Build(context.Background()))
	return env
}

func TestEnvironment_Run_propagatesExitCode(t *testing.T) {
	env := newBuiltEnvironment(t, "exit 3\n")
	code, err := env.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, StateExited, env.State())
	assert.Equal(t, 3, env.ExitCode())
}

func TestEnvironment_Run_success(t *testing.T) {
	env := newBuiltEnvironment(t, "echo ready\n")
	var stdout bytes.Buffer
	code, err := env.Run(context.Background(), WithStdio(nil, &stdout, &stdout))
	assert.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "ready\n", stdout.String())
}

func TestEnvironment_Run_requiresBuilt(t *testing.T) {
	env := New(&Recipe{
		Source: t.TempDir(),
		Root:   filepath.Join(t.TempDir(), "root"),
		Entry:  &Entry{Interpreter: "/bin/sh", Script: "main.sh"},
	}, WithInstaller(&recordingInstaller{}))

	_, err := env.Run(context.Background())
	assert.Error(t, err)

	var runErr *RunError
	assert.ErrorAs(t, err, &runErr)
}

func TestEnvironment_Run_instancesAreIndependent(t *testing.T) {
	// two runs of the same recipe get separate roots; state written by the
	// first never leaks into the second
	script := "test -f marker && exit 7; touch marker; exit 0\n"
	first := newBuiltEnvironment(t, script)
	code, err := first.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, code)

	second := newBuiltEnvironment(t, script)
	code, err = second.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, code)
}
