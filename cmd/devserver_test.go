package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePairing(t *testing.T) {
	c, a, b, err := parsePairing("c1:alice:bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "alice", "bob"}, []string{c, a, b})

	for _, bad := range []string{"", "c1:alice", "c1:alice:alice", "c1::bob", "a:b:c:d"} {
		_, _, _, err := parsePairing(bad)
		assert.Error(t, err, bad)
	}
}
