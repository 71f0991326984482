package chain

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EncodeConstructorArgs ABI-encodes args against the constructor of parsed
// and returns them as hex without the 0x prefix.
func EncodeConstructorArgs(parsed abi.ABI, args ...any) (string, error) {
	packed, err := parsed.Pack("", args...)
	if err != nil {
		return "", fmt.Errorf("pack constructor args: %w", err)
	}
	return hex.EncodeToString(packed), nil
}

// ParsePrivateKey accepts a hex key with or without the 0x prefix.
func ParsePrivateKey(v string) (*ecdsa.PrivateKey, ethcommon.Address, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "0x")
	if v == "" {
		return nil, ethcommon.Address{}, fmt.Errorf("%w: private key is empty", common.ErrConfig)
	}
	key, err := crypto.HexToECDSA(v)
	if err != nil {
		return nil, ethcommon.Address{}, fmt.Errorf("%w: parse private key: %w", common.ErrConfig, err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}
