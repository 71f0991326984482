// Package chain deploys compiled contracts to an EVM network through
// go-ethereum and tracks their confirmations.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/dmitrijs2005/fundingdeploy/internal/logging"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const DefaultPollInterval = 2 * time.Second

// Backend is the RPC surface the deployer uses. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// ArtifactLoader resolves a contract name to its compiled artifact.
type ArtifactLoader interface {
	Load(name string) (*Artifact, error)
}

type EthDeployer struct {
	backend      Backend
	artifacts    ArtifactLoader
	key          *ecdsa.PrivateKey
	from         ethcommon.Address
	chainID      *big.Int
	pollInterval time.Duration
	logger       logging.Logger
	now          func() time.Time
}

// NewEthDeployer reads the chain id from the backend once and signs every
// deployment with key.
func NewEthDeployer(ctx context.Context, backend Backend, artifacts ArtifactLoader, key *ecdsa.PrivateKey, pollInterval time.Duration, logger logging.Logger) (*EthDeployer, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &EthDeployer{
		backend:      backend,
		artifacts:    artifacts,
		key:          key,
		from:         crypto.PubkeyToAddress(key.PublicKey),
		chainID:      chainID,
		pollInterval: pollInterval,
		logger:       logger,
		now:          time.Now,
	}, nil
}

func (d *EthDeployer) ChainID() *big.Int { return new(big.Int).Set(d.chainID) }

// From is the address that signs and pays for deployments.
func (d *EthDeployer) From() ethcommon.Address { return d.from }

// Deploy sends the creation transaction for contract and waits for it to be
// mined.
func (d *EthDeployer) Deploy(ctx context.Context, contract string, args ...any) (models.Deployment, error) {
	art, err := d.artifacts.Load(contract)
	if err != nil {
		return models.Deployment{}, fmt.Errorf("%w: %w", common.ErrDeployment, err)
	}

	encoded, err := EncodeConstructorArgs(art.ABI(), args...)
	if err != nil {
		return models.Deployment{}, fmt.Errorf("%w: %s: %w", common.ErrDeployment, contract, err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(d.key, d.chainID)
	if err != nil {
		return models.Deployment{}, fmt.Errorf("%w: transactor: %w", common.ErrDeployment, err)
	}
	opts.Context = ctx

	addr, tx, _, err := bind.DeployContract(opts, art.ABI(), art.Code(), d.backend, args...)
	if err != nil {
		return models.Deployment{}, fmt.Errorf("%w: send %s: %w", common.ErrDeployment, contract, err)
	}
	d.logger.Info(ctx, "deployment sent", "contract", contract, "tx", tx.Hash().Hex(), "address", addr.Hex())

	// WaitMined keeps polling through transient receipt errors such as an
	// index that is still being built.
	receipt, err := bind.WaitMined(ctx, d.backend, tx)
	if err != nil {
		return models.Deployment{}, fmt.Errorf("%w: wait %s: %w", common.ErrDeployment, contract, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return models.Deployment{}, fmt.Errorf("%w: %s reverted in tx %s", common.ErrDeployment, contract, tx.Hash().Hex())
	}

	d.logger.Info(ctx, "contract deployed",
		"contract", contract,
		"address", addr.Hex(),
		"block", receipt.BlockNumber.Uint64(),
		"gas", receipt.GasUsed,
	)

	return models.Deployment{
		ContractName:    contract,
		Address:         addr,
		TxHash:          tx.Hash(),
		BlockNumber:     receipt.BlockNumber.Uint64(),
		ConstructorArgs: args,
		EncodedArgs:     encoded,
		CreatedAt:       d.now().UTC(),
	}, nil
}

// WaitForConfirmations blocks until the deployment block has n
// confirmations, counting the block it was mined in as the first.
func (d *EthDeployer) WaitForConfirmations(ctx context.Context, dep models.Deployment, n uint64) error {
	if n <= 1 {
		return nil
	}
	target := dep.BlockNumber + n - 1

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		head, err := d.backend.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("read block number: %w", err)
		}
		if head >= target {
			d.logger.Debug(ctx, "confirmations reached", "contract", dep.ContractName, "head", head)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
