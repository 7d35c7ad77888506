package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	want := []string{"serve", "ingest", "ask", "lambda", "version"}

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range want {
		assert.True(t, names[name], "missing subcommand %q", name)
	}
}

func TestVersionCmd_Output(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})

	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, buf.String(), "ragline")
	assert.Contains(t, buf.String(), AppVersion)
}
