package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	values, err := parseArgs([]string{"3", "2.5", "hello", "[1, 2]", "true", "", "~"})
	require.NoError(t, err)
	assert.Equal(t, []any{3, 2.5, "hello", []any{1, 2}, true, "", "~"}, values)

	_, err = parseArgs([]string{"[1, 2"})
	assert.Error(t, err)
}
