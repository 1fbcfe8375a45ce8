package main_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cyclist "gregoryjjb/cyclist"
)

func TestSystemdServiceFile(t *testing.T) {
	var b strings.Builder
	err := cyclist.WriteSystemdServiceFile(&b, cyclist.CyclistServiceParams{
		BinaryPath: "/usr/local/bin/cyclist",
		ConfigPath: "/etc/cyclist.toml",
		User:       "cyclist",
	})
	require.NoError(t, err)

	unit := b.String()
	assert.Contains(t, unit, "User=cyclist\n")
	assert.Contains(t, unit, "ExecStart=/usr/local/bin/cyclist --config /etc/cyclist.toml\n")

	b.Reset()
	require.NoError(t, cyclist.WriteSystemdServiceFile(&b, cyclist.CyclistServiceParams{
		BinaryPath: "/usr/local/bin/cyclist",
		User:       "pi",
	}))
	assert.Contains(t, b.String(), "ExecStart=/usr/local/bin/cyclist\n")
}
