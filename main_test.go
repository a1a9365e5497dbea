package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	// Building the root binds the debug flag into viper; a missing flag
	// would panic here.
	require.NotNil(t, root.PersistentFlags().Lookup("debug"))

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"print", "check", "run", "opt"})
}
