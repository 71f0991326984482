// Package deploy sequences the contract deployments of one run: the NFT
// first, then the DAO bound to the NFT's address, then optional source
// verification of both.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/dmitrijs2005/fundingdeploy/internal/logging"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
)

const (
	DefaultNFTContract = "FundingNFT"
	DefaultDAOContract = "FundingDAO"
)

// DefaultDevelopmentChains are networks where verification never runs.
var DefaultDevelopmentChains = []string{"hardhat", "localhost"}

type Options struct {
	Network       string
	NFTContract   string
	DAOContract   string
	Confirmations uint64
	// Verify enables source verification; see ShouldVerify.
	Verify bool
}

// Result is what a successful run produced.
type Result struct {
	RunID                string
	Network              string
	TokenURIs            []string
	NFT                  models.Deployment
	DAO                  models.Deployment
	State                models.RunState
	VerificationFailures []error
}

type Orchestrator struct {
	deployer Deployer
	verifier Verifier
	recorder Recorder
	opts     Options
	logger   logging.Logger
}

// NewOrchestrator wires the run. verifier and recorder may be nil.
func NewOrchestrator(deployer Deployer, verifier Verifier, recorder Recorder, opts Options, logger logging.Logger) *Orchestrator {
	if opts.NFTContract == "" {
		opts.NFTContract = DefaultNFTContract
	}
	if opts.DAOContract == "" {
		opts.DAOContract = DefaultDAOContract
	}
	return &Orchestrator{
		deployer: deployer,
		verifier: verifier,
		recorder: recorder,
		opts:     opts,
		logger:   logger.With("network", opts.Network),
	}
}

// ShouldVerify is true when network is not a development chain and an
// explorer API key is present.
func ShouldVerify(network string, developmentChains []string, apiKey string) bool {
	return apiKey != "" && !slices.Contains(developmentChains, network)
}

// Run deploys the NFT with tokenURIs as its only constructor argument, then
// the DAO with the NFT address as its only argument. A DAO is never deployed
// without a confirmed NFT. Verification failures are collected in the result
// and logged, never returned.
func (o *Orchestrator) Run(ctx context.Context, tokenURIs []string) (*Result, error) {
	if tokenURIs == nil {
		tokenURIs = []string{}
	}

	run := &models.Run{Network: o.opts.Network, TokenURICount: len(tokenURIs), State: models.RunStateStart}
	o.record(ctx, "start run", func() error { return o.recorder.StartRun(ctx, run) })

	res := &Result{RunID: run.ID, Network: o.opts.Network, TokenURIs: tokenURIs, State: models.RunStateStart}

	o.logger.Info(ctx, "deploying NFT", "contract", o.opts.NFTContract, "token_uris", len(tokenURIs))
	nft, err := o.deployAndWait(ctx, o.opts.NFTContract, tokenURIs)
	if err != nil {
		o.fail(ctx, run.ID)
		return nil, err
	}
	res.NFT = nft
	res.State = models.RunStateNFTDeployed
	o.record(ctx, "record nft", func() error {
		return o.recorder.RecordDeployment(ctx, run.ID, res.State, &res.NFT)
	})

	o.logger.Info(ctx, "deploying DAO", "contract", o.opts.DAOContract, "nft", nft.Address.Hex())
	dao, err := o.deployAndWait(ctx, o.opts.DAOContract, nft.Address)
	if err != nil {
		o.fail(ctx, run.ID)
		return nil, err
	}
	res.DAO = dao
	res.State = models.RunStateDAODeployed
	o.record(ctx, "record dao", func() error {
		return o.recorder.RecordDeployment(ctx, run.ID, res.State, &res.DAO)
	})

	if o.opts.Verify && o.verifier != nil {
		for _, d := range []*models.Deployment{&res.NFT, &res.DAO} {
			if err := o.verifier.Verify(ctx, *d); err != nil {
				o.logger.Warn(ctx, "verification failed", "contract", d.ContractName, "error", err)
				res.VerificationFailures = append(res.VerificationFailures, err)
				continue
			}
			d.Verified = true
			o.record(ctx, "mark verified", func() error { return o.recorder.MarkVerified(ctx, *d) })
		}
		res.State = models.RunStateVerified
	} else {
		o.logger.Info(ctx, "verification skipped")
		res.State = models.RunStateSkipped
	}
	o.record(ctx, "record state", func() error { return o.recorder.RecordState(ctx, run.ID, res.State) })

	res.State = models.RunStateDone
	o.record(ctx, "finish run", func() error { return o.recorder.RecordState(ctx, run.ID, res.State) })

	o.logger.Info(ctx, "deployment finished",
		"nft", res.NFT.Address.Hex(),
		"dao", res.DAO.Address.Hex(),
		"verification_failures", len(res.VerificationFailures),
	)
	return res, nil
}

func (o *Orchestrator) deployAndWait(ctx context.Context, contract string, arg any) (models.Deployment, error) {
	d, err := o.deployer.Deploy(ctx, contract, arg)
	if err != nil {
		return models.Deployment{}, wrapDeployment(contract, err)
	}
	if err := o.deployer.WaitForConfirmations(ctx, d, o.opts.Confirmations); err != nil {
		return models.Deployment{}, wrapDeployment(contract, fmt.Errorf("wait for confirmations: %w", err))
	}
	return d, nil
}

func wrapDeployment(contract string, err error) error {
	if errors.Is(err, common.ErrDeployment) {
		return fmt.Errorf("%s: %w", contract, err)
	}
	return fmt.Errorf("%w: %s: %w", common.ErrDeployment, contract, err)
}

func (o *Orchestrator) fail(ctx context.Context, runID string) {
	o.record(ctx, "record failure", func() error {
		return o.recorder.RecordState(ctx, runID, models.RunStateFailed)
	})
}

// record runs fn against the recorder when one is configured. Ledger errors
// only produce a warning.
func (o *Orchestrator) record(ctx context.Context, what string, fn func() error) {
	if o.recorder == nil {
		return
	}
	if err := fn(); err != nil {
		o.logger.Warn(ctx, "ledger "+what+" failed", "error", err)
	}
}
