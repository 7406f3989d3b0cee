package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	for _, env := range []string{envLocal, envDev, envProd, "unknown"} {
		assert.NotNil(t, setupLogger(env), env)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, name := range []string{"serve", "export", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.NotEmpty(t, out.String())
}

func TestExportCmd_RequiresCredentials(t *testing.T) {
	t.Setenv("ROSTER_USERNAME", "")
	t.Setenv("ROSTER_PASSWORD", "")

	cmd := newExportCmd()
	cmd.SetArgs([]string{"--username", "admin"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.ErrorIs(t, cmd.Execute(), errMissingCredentials)
}
