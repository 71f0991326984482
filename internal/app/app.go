// Package app wires configuration into the token URI pipeline, the chain
// deployer, the verifier and the ledger, and exposes the operations the CLI
// commands run.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/fundingdeploy/internal/chain"
	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/dmitrijs2005/fundingdeploy/internal/config"
	"github.com/dmitrijs2005/fundingdeploy/internal/deploy"
	"github.com/dmitrijs2005/fundingdeploy/internal/images"
	"github.com/dmitrijs2005/fundingdeploy/internal/ledger"
	"github.com/dmitrijs2005/fundingdeploy/internal/logging"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
	"github.com/dmitrijs2005/fundingdeploy/internal/tokenuri"
	"github.com/dmitrijs2005/fundingdeploy/internal/upload"
	"github.com/dmitrijs2005/fundingdeploy/internal/upload/filebase"
	"github.com/dmitrijs2005/fundingdeploy/internal/upload/pinata"
	"github.com/dmitrijs2005/fundingdeploy/internal/verify"
)

// dialBackend is a seam for tests; the returned func releases the connection.
var dialBackend = func(ctx context.Context, rpcURL string) (chain.Backend, func(), error) {
	c, err := chain.Dial(ctx, rpcURL)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

type App struct {
	cfg     *config.Config
	logger  logging.Logger
	closers []func() error
}

func NewApp(cfg *config.Config, logger logging.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// TokenURIs returns the URIs the NFT is constructed with: freshly uploaded
// ones when UploadToPinata is set, the configured fallback list otherwise.
func (a *App) TokenURIs(ctx context.Context) ([]string, error) {
	if !a.cfg.UploadToPinata {
		a.logger.Info(ctx, "upload disabled, using fallback token URIs", "count", len(a.cfg.FallbackTokenURIs))
		return append([]string{}, a.cfg.FallbackTokenURIs...), nil
	}

	uploader, err := a.newUploader(ctx)
	if err != nil {
		return nil, err
	}

	p := tokenuri.NewPipeline(images.NewDirSource(), uploader, tokenuri.Options{
		Extensions:  a.cfg.ImageExtensions,
		Description: a.cfg.MetadataDescription,
		TraitType:   a.cfg.MetadataTraitType,
	}, logging.Component(a.logger, "tokenuri"))

	return p.Generate(ctx, a.cfg.ImagesDir)
}

func (a *App) newUploader(ctx context.Context) (upload.Uploader, error) {
	logger := a.logger.With("provider", a.cfg.UploadProvider)

	switch a.cfg.UploadProvider {
	case upload.ProviderFilebase:
		return filebase.NewClient(ctx, filebase.Config{
			AccessKey: a.cfg.Filebase.AccessKey,
			SecretKey: a.cfg.Filebase.SecretKey,
			Bucket:    a.cfg.Filebase.Bucket,
			Region:    a.cfg.Filebase.Region,
			Endpoint:  a.cfg.Filebase.Endpoint,
		}, logger)
	case upload.ProviderPinata:
		return pinata.NewClient(a.cfg.Pinata.APIURL, pinata.Credentials{
			JWT:       a.cfg.Pinata.JWT,
			APIKey:    a.cfg.Pinata.APIKey,
			APISecret: a.cfg.Pinata.APISecret,
		}, nil, logger)
	default:
		return nil, fmt.Errorf("%w: unknown upload provider %q", common.ErrConfig, a.cfg.UploadProvider)
	}
}

// Deploy runs the whole flow: token URIs, NFT, DAO and optional verification.
func (a *App) Deploy(ctx context.Context) (*deploy.Result, error) {
	key, _, err := chain.ParsePrivateKey(a.cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	uris, err := a.TokenURIs(ctx)
	if err != nil {
		return nil, err
	}

	backend, release, err := dialBackend(ctx, a.cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDeployment, err)
	}
	a.closers = append(a.closers, func() error { release(); return nil })

	artifacts := chain.NewArtifacts(a.cfg.ArtifactsDir)
	deployer, err := chain.NewEthDeployer(ctx, backend, artifacts, key, a.cfg.PollInterval, logging.Component(a.logger, "chain"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDeployment, err)
	}
	a.logger.Info(ctx, "deployer ready", "from", deployer.From().Hex(), "chain_id", deployer.ChainID().String())

	enabled := deploy.ShouldVerify(a.cfg.Network, a.cfg.DevelopmentChains, a.cfg.EtherscanAPIKey)
	var verifier deploy.Verifier
	if enabled {
		verifier = verify.NewEtherscan(verify.Options{
			BaseURL:      a.cfg.EtherscanAPIURL,
			APIKey:       a.cfg.EtherscanAPIKey,
			ChainID:      deployer.ChainID(),
			PollInterval: a.cfg.VerifyPollInterval,
			MaxAttempts:  a.cfg.VerifyMaxAttempts,
			HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		}, artifacts, logging.Component(a.logger, "verify"))
	}

	var recorder deploy.Recorder
	if l := a.openLedger(ctx); l != nil {
		recorder = l
	}

	o := deploy.NewOrchestrator(deployer, verifier, recorder, deploy.Options{
		Network:       a.cfg.Network,
		NFTContract:   a.cfg.NFTContract,
		DAOContract:   a.cfg.DAOContract,
		Confirmations: a.cfg.BlockConfirmations,
		Verify:        enabled,
	}, logging.Component(a.logger, "deploy"))

	return o.Run(ctx, uris)
}

// openLedger returns nil when the ledger is disabled or cannot be opened; a
// deployment never depends on it.
func (a *App) openLedger(ctx context.Context) *ledger.Ledger {
	if !a.cfg.LedgerEnabled() {
		return nil
	}
	l, err := ledger.Open(ctx, a.cfg.LedgerDriver, a.cfg.DatabaseDSN, a.logger)
	if err != nil {
		a.logger.Warn(ctx, "ledger unavailable, run will not be recorded", "error", err)
		return nil
	}
	a.closers = append(a.closers, l.Close)
	return l
}

// History returns the latest recorded run on the configured network and its
// deployments.
func (a *App) History(ctx context.Context) (models.Run, []models.Deployment, error) {
	if !a.cfg.LedgerEnabled() {
		return models.Run{}, nil, fmt.Errorf("%w: ledger is disabled", common.ErrConfig)
	}
	l, err := ledger.Open(ctx, a.cfg.LedgerDriver, a.cfg.DatabaseDSN, a.logger)
	if err != nil {
		return models.Run{}, nil, err
	}
	a.closers = append(a.closers, l.Close)

	run, err := l.LatestRun(ctx, a.cfg.Network)
	if err != nil {
		return models.Run{}, nil, err
	}
	deps, err := l.ListDeployments(ctx, run.ID)
	if err != nil {
		return models.Run{}, nil, err
	}
	return run, deps, nil
}

// Close releases everything opened by earlier calls, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
