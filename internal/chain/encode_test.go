package chain

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeConstructorArgs_Address(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(daoABI))
	require.NoError(t, err)

	addr := ethcommon.HexToAddress("0x00000000000000000000000000000000000000aa")
	got, err := EncodeConstructorArgs(parsed, addr)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("0", 62)+"aa", got)
}

func TestEncodeConstructorArgs_EmptyStringArray(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(nftABI))
	require.NoError(t, err)

	got, err := EncodeConstructorArgs(parsed, []string{})
	require.NoError(t, err)
	// offset word (0x20) followed by a zero length word
	assert.Equal(t, strings.Repeat("0", 62)+"20"+strings.Repeat("0", 64), got)
}

func TestEncodeConstructorArgs_WrongType(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(daoABI))
	require.NoError(t, err)

	_, err = EncodeConstructorArgs(parsed, "not an address")
	assert.Error(t, err)
}

func TestParsePrivateKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := ethcommon.Bytes2Hex(crypto.FromECDSA(key))
	want := crypto.PubkeyToAddress(key.PublicKey)

	for _, in := range []string{hexKey, "0x" + hexKey, "  0x" + hexKey + "\n"} {
		_, addr, err := ParsePrivateKey(in)
		require.NoError(t, err)
		assert.Equal(t, want, addr)
	}

	_, _, err = ParsePrivateKey("")
	assert.ErrorIs(t, err, common.ErrConfig)

	_, _, err = ParsePrivateKey("zz")
	assert.ErrorIs(t, err, common.ErrConfig)
}
