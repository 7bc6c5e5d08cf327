package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-pipeline/internal/config"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv(config.EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	return &app{stdin: strings.NewReader(""), stdout: &stdout, stderr: &stderr}, &stdout, &stderr
}

func TestExecute_Pipeline(t *testing.T) {
	a, stdout, _ := newTestApp(t)
	target := filepath.Join(t.TempDir(), "out.miff")

	err := a.execute(context.Background(), []string{"-size", "6x4", "xc:red", "-flop", "-print", "%wx%h", target})
	require.NoError(t, err)
	assert.Equal(t, "6x4", stdout.String())

	_, err = os.Stat(target)
	assert.NoError(t, err)
}

func TestExecute_PipelineNamedLikeCommand(t *testing.T) {
	a, stdout, _ := newTestApp(t)

	// "version" is the argument of -print, not the version command.
	err := a.execute(context.Background(), []string{"rose:", "-print", "version", "null:"})
	require.NoError(t, err)
	assert.Equal(t, "version", stdout.String())
}

func TestExecute_ExitStatus(t *testing.T) {
	a, _, _ := newTestApp(t)

	err := a.execute(context.Background(), []string{"rose:", "-nosuch", "null:"})
	var status exitStatus
	require.ErrorAs(t, err, &status)
	assert.Equal(t, exitStatus(1), status)
	assert.Equal(t, "exit status 1", status.Error())
}

func TestExecute_TooFewArguments(t *testing.T) {
	a, _, _ := newTestApp(t)

	err := a.execute(context.Background(), []string{"rose:"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing an input image")
}

func TestExecute_ListOption(t *testing.T) {
	a, stdout, _ := newTestApp(t)

	require.NoError(t, a.execute(context.Background(), []string{"-list", "dispose"}))
	assert.Contains(t, stdout.String(), "Background")
}

func TestExecute_Commands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments prints help", nil, "Usage:"},
		{"help", []string{"help"}, "Usage:"},
		{"version", []string{"version"}, "imgpipe dev"},
		{"version flag", []string{"--version"}, "version dev"},
		{"list categories", []string{"list"}, "dispose"},
		{"list category", []string{"list", "gravity"}, "SouthEast"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, stdout, _ := newTestApp(t)
			require.NoError(t, a.execute(context.Background(), tt.args))
			assert.Contains(t, stdout.String(), tt.want)
		})
	}
}

func TestExecute_ListUnknownCategory(t *testing.T) {
	a, _, _ := newTestApp(t)
	assert.Error(t, a.execute(context.Background(), []string{"list", "bogus"}))
}

func TestExecute_Script(t *testing.T) {
	a, stdout, _ := newTestApp(t)
	script := filepath.Join(t.TempDir(), "frames.mgk")
	require.NoError(t, os.WriteFile(script, []byte("rose: rose:\n-print '%n'\n"), 0o644))

	require.NoError(t, a.execute(context.Background(), []string{"script", script}))
	assert.Equal(t, "2", stdout.String())
}

func TestExecute_ScriptFailure(t *testing.T) {
	a, _, _ := newTestApp(t)

	err := a.execute(context.Background(), []string{"script", filepath.Join(t.TempDir(), "absent.mgk")})
	var status exitStatus
	assert.ErrorAs(t, err, &status)
}

func TestExecute_Serve(t *testing.T) {
	a, stdout, _ := newTestApp(t)
	a.stdin = strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")

	require.NoError(t, a.execute(context.Background(), []string{"serve"}))
	assert.Contains(t, stdout.String(), `"id":1`)
}

func TestExecute_ConfigFlag(t *testing.T) {
	a, _, _ := newTestApp(t)
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_level: loud\n"), 0o644))

	err := a.execute(context.Background(), []string{"--config", cfg, "serve"})
	assert.Error(t, err)
}

func TestIsCommand(t *testing.T) {
	a, _, _ := newTestApp(t)
	root := a.rootCmd()

	for _, arg := range []string{"run", "script", "serve", "list", "version", "help", "--help", "--config=x"} {
		assert.True(t, isCommand(root, arg), arg)
	}
	for _, arg := range []string{"rose:", "-size", "in.png", "(", "-list"} {
		assert.False(t, isCommand(root, arg), arg)
	}
}
