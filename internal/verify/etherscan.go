// Package verify submits deployed contracts to an Etherscan-compatible
// explorer for source verification.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/fundingdeploy/internal/chain"
	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/dmitrijs2005/fundingdeploy/internal/logging"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
	"github.com/dmitrijs2005/fundingdeploy/internal/netx"
)

const (
	DefaultBaseURL      = "https://api.etherscan.io/v2/api"
	DefaultPollInterval = 5 * time.Second
	DefaultMaxAttempts  = 12

	codeFormat = "solidity-standard-json-input"
)

// ArtifactSource resolves the compiler input behind a deployed contract.
type ArtifactSource interface {
	Load(name string) (*chain.Artifact, error)
	BuildInfo(art *chain.Artifact) (*chain.BuildInfo, error)
}

type Options struct {
	BaseURL      string
	APIKey       string
	ChainID      *big.Int
	PollInterval time.Duration
	MaxAttempts  int
	HTTPClient   *http.Client
}

type Etherscan struct {
	opts      Options
	artifacts ArtifactSource
	logger    logging.Logger
}

func NewEtherscan(opts Options, artifacts ArtifactSource, logger logging.Logger) *Etherscan {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.ChainID == nil {
		opts.ChainID = big.NewInt(1)
	}
	return &Etherscan{opts: opts, artifacts: artifacts, logger: logger}
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Verify submits d and waits until the explorer reports a verdict. A
// contract that is already verified counts as success.
func (e *Etherscan) Verify(ctx context.Context, d models.Deployment) error {
	if err := e.verify(ctx, d); err != nil {
		return fmt.Errorf("%w: %s at %s: %w", common.ErrVerification, d.ContractName, d.Address.Hex(), err)
	}
	return nil
}

func (e *Etherscan) verify(ctx context.Context, d models.Deployment) error {
	art, err := e.artifacts.Load(d.ContractName)
	if err != nil {
		return err
	}
	bi, err := e.artifacts.BuildInfo(art)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("apikey", e.opts.APIKey)
	form.Set("module", "contract")
	form.Set("action", "verifysourcecode")
	form.Set("contractaddress", d.Address.Hex())
	form.Set("sourceCode", string(bi.Input))
	form.Set("codeformat", codeFormat)
	form.Set("contractname", art.FullyQualifiedName())
	form.Set("compilerversion", "v"+bi.SolcLongVersion)
	form.Set("constructorArguements", d.EncodedArgs)

	guid, err := e.submit(ctx, form)
	if err != nil {
		return err
	}
	if guid == "" {
		e.logger.Info(ctx, "contract already verified", "contract", d.ContractName, "address", d.Address.Hex())
		return nil
	}

	e.logger.Info(ctx, "verification submitted", "contract", d.ContractName, "guid", guid)
	return e.poll(ctx, guid)
}

// submit sends the verification request once and returns its guid, or ""
// when the contract is already verified.
func (e *Etherscan) submit(ctx context.Context, form url.Values) (string, error) {
	resp, err := e.call(ctx, http.MethodPost, form)
	if err != nil {
		return "", err
	}
	if resp.Status == "1" {
		return resp.Result, nil
	}
	if isAlreadyVerified(resp.Result) {
		return "", nil
	}
	return "", fmt.Errorf("submit rejected: %s", resp.Result)
}

func (e *Etherscan) poll(ctx context.Context, guid string) error {
	q := url.Values{}
	q.Set("apikey", e.opts.APIKey)
	q.Set("module", "contract")
	q.Set("action", "checkverifystatus")
	q.Set("guid", guid)

	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		if err := e.sleep(ctx); err != nil {
			return err
		}

		resp, err := e.call(ctx, http.MethodGet, q)
		if err != nil {
			return err
		}

		switch {
		case isAlreadyVerified(resp.Result):
			return nil
		case strings.HasPrefix(resp.Result, "Pass"):
			return nil
		case strings.Contains(strings.ToLower(resp.Result), "pending"):
			e.logger.Debug(ctx, "verification pending", "guid", guid, "attempt", attempt)
			continue
		default:
			return fmt.Errorf("verification status: %s", resp.Result)
		}
	}
	return fmt.Errorf("verification still pending after %d checks", e.opts.MaxAttempts)
}

func (e *Etherscan) call(ctx context.Context, method string, params url.Values) (*apiResponse, error) {
	u, err := url.Parse(e.opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	q := u.Query()
	q.Set("chainid", e.opts.ChainID.String())

	var body io.Reader
	if method == http.MethodGet {
		for k, vs := range params {
			q[k] = vs
		}
	} else {
		body = strings.NewReader(params.Encode())
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	raw, err := netx.Do(e.opts.HTTPClient, "explorer", req)
	if err != nil {
		return nil, err
	}

	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode explorer response: %w", err)
	}
	return &out, nil
}

func (e *Etherscan) sleep(ctx context.Context) error {
	t := time.NewTimer(e.opts.PollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isAlreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}
