package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Deployment describes a contract that has been broadcast and mined.
type Deployment struct {
	ID              string
	ContractName    string
	Address         common.Address
	TxHash          common.Hash
	BlockNumber     uint64
	ConstructorArgs []any
	// EncodedArgs is the ABI-encoded constructor argument blob, hex without 0x.
	EncodedArgs string
	Verified    bool
	CreatedAt   time.Time
}

// RunState is the stage a deployment run has reached.
type RunState string

const (
	RunStateStart       RunState = "start"
	RunStateNFTDeployed RunState = "nft_deployed"
	RunStateDAODeployed RunState = "dao_deployed"
	RunStateVerified    RunState = "verified"
	RunStateSkipped     RunState = "skipped"
	RunStateDone        RunState = "done"
	RunStateFailed      RunState = "failed"
)

// Run is one invocation of the deployment flow.
type Run struct {
	ID            string
	Network       string
	TokenURICount int
	State         RunState
	StartedAt     time.Time
	UpdatedAt     time.Time
}
