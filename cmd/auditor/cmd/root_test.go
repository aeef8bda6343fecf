package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdSubcommands(t *testing.T) {
	for _, name := range []string{"run", "agents", "bundles"} {
		sub, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCmdVersion(t *testing.T) {
	assert.NotEmpty(t, rootCmd.Version)
}
