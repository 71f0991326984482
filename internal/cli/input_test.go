package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptPrivateKey_TrimsAndWipes(t *testing.T) {
	var buf []byte
	orig := readPassword
	readPassword = func(int) ([]byte, error) {
		buf = []byte("  abcd\n")
		return buf, nil
	}
	defer func() { readPassword = orig }()

	var out bytes.Buffer
	got, err := promptPrivateKey(&out)
	require.NoError(t, err)
	assert.Equal(t, "abcd", got)
	assert.Equal(t, "Deployer private key: \n", out.String())
	assert.Equal(t, make([]byte, len(buf)), buf)
}

func TestPromptPrivateKey_Error(t *testing.T) {
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	defer func() { readPassword = orig }()

	_, err := promptPrivateKey(&bytes.Buffer{})
	assert.EqualError(t, err, "boom")
}
