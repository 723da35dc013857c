package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringToken(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	tok := NewKeyringToken("u1")

	_, err := tok.Token(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, tok.Store("abc"))
	got, err := tok.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	require.NoError(t, tok.Clear())
	require.NoError(t, tok.Clear())
	_, err = tok.Token(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}
