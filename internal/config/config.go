package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/fundingdeploy/internal/chain"
	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/dmitrijs2005/fundingdeploy/internal/deploy"
	"github.com/dmitrijs2005/fundingdeploy/internal/ledger"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
	"github.com/dmitrijs2005/fundingdeploy/internal/tokenuri"
	"github.com/dmitrijs2005/fundingdeploy/internal/upload"
	"github.com/dmitrijs2005/fundingdeploy/internal/upload/filebase"
	"github.com/dmitrijs2005/fundingdeploy/internal/upload/pinata"
	"github.com/dmitrijs2005/fundingdeploy/internal/verify"
)

// DefaultTokenURIs are deployed when the upload pipeline is not enabled.
var DefaultTokenURIs = []string{
	"ipfs://QmSXqgJH5W1Hc3m5EZfCGJBe6JWqZUW7eruMa1jKjDcjwN",
	"ipfs://QmXKDz1PrAs74pgMcJrYVCnF2NTp3DXKZo5WEtWMaGVi18",
	"ipfs://QmQqdyEfHursFGjGPWJEfyy65ujWJtUmwn3nLgfSCDkix2",
}

type PinataConfig struct {
	JWT       string
	APIKey    string
	APISecret string
	APIURL    string
}

type FilebaseConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
}

// Config holds runtime settings for one deployment run.
type Config struct {
	Network            string
	RPCURL             string
	PrivateKey         string
	BlockConfirmations uint64
	DevelopmentChains  []string
	PollInterval       time.Duration
	ArtifactsDir       string
	NFTContract        string
	DAOContract        string

	UploadToPinata      bool
	UploadProvider      string
	ImagesDir           string
	ImageExtensions     []string
	FallbackTokenURIs   []string
	MetadataDescription string
	MetadataTraitType   string
	Pinata              PinataConfig
	Filebase            FilebaseConfig

	EtherscanAPIKey    string
	EtherscanAPIURL    string
	VerifyPollInterval time.Duration
	VerifyMaxAttempts  int

	LedgerDriver string
	DatabaseDSN  string

	LogLevel string
}

// LoadDefaults populates Config with values suitable for a local hardhat node.
func (c *Config) LoadDefaults() {
	c.Network = "hardhat"
	c.RPCURL = "http://127.0.0.1:8545"
	c.BlockConfirmations = 1
	c.DevelopmentChains = append([]string(nil), deploy.DefaultDevelopmentChains...)
	c.PollInterval = chain.DefaultPollInterval
	c.ArtifactsDir = "artifacts"
	c.NFTContract = deploy.DefaultNFTContract
	c.DAOContract = deploy.DefaultDAOContract

	c.UploadProvider = upload.ProviderPinata
	c.ImagesDir = "./images/"
	c.ImageExtensions = append([]string(nil), tokenuri.DefaultExtensions...)
	c.FallbackTokenURIs = append([]string(nil), DefaultTokenURIs...)
	c.MetadataDescription = tokenuri.DefaultDescription
	c.MetadataTraitType = models.DefaultTraitType
	c.Pinata.APIURL = pinata.DefaultBaseURL
	c.Filebase.Region = filebase.DefaultRegion
	c.Filebase.Endpoint = filebase.DefaultEndpoint

	c.EtherscanAPIURL = verify.DefaultBaseURL
	c.VerifyPollInterval = verify.DefaultPollInterval
	c.VerifyMaxAttempts = verify.DefaultMaxAttempts

	c.LedgerDriver = ledger.DriverSQLite
	c.DatabaseDSN = "deployments/ledger.db"

	c.LogLevel = "info"
}

// Load builds a Config from defaults, the optional file at path and the
// environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrConfig, err)
		}
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that do not depend on which command runs.
func (c *Config) Validate() error {
	switch c.UploadProvider {
	case upload.ProviderPinata, upload.ProviderFilebase:
	default:
		return fmt.Errorf("%w: unknown upload provider %q", common.ErrConfig, c.UploadProvider)
	}

	switch c.LedgerDriver {
	case ledger.DriverSQLite, ledger.DriverPostgres, "postgres", ledger.DriverNone:
	default:
		return fmt.Errorf("%w: unknown ledger driver %q", common.ErrConfig, c.LedgerDriver)
	}

	if c.RPCURL == "" {
		return fmt.Errorf("%w: rpc url is empty", common.ErrConfig)
	}
	if c.PollInterval <= 0 || c.VerifyPollInterval <= 0 {
		return fmt.Errorf("%w: poll intervals must be positive", common.ErrConfig)
	}
	for _, ext := range c.ImageExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: image extension %q must start with a dot", common.ErrConfig, ext)
		}
	}
	return nil
}

// LedgerEnabled reports whether runs should be recorded.
func (c *Config) LedgerEnabled() bool {
	return c.LedgerDriver != ledger.DriverNone
}
