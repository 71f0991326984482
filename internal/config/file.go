package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/fundingdeploy/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Pointer fields let
// a file override only the keys it mentions.
type FileConfig struct {
	Network            *string         `json:"network" yaml:"network"`
	RPCURL             *string         `json:"rpc_url" yaml:"rpc_url"`
	PrivateKey         *string         `json:"private_key" yaml:"private_key"`
	BlockConfirmations *uint64         `json:"block_confirmations" yaml:"block_confirmations"`
	DevelopmentChains  []string        `json:"development_chains" yaml:"development_chains"`
	PollInterval       *timex.Duration `json:"poll_interval" yaml:"poll_interval"`
	ArtifactsDir       *string         `json:"artifacts_dir" yaml:"artifacts_dir"`
	NFTContract        *string         `json:"nft_contract" yaml:"nft_contract"`
	DAOContract        *string         `json:"dao_contract" yaml:"dao_contract"`

	UploadToPinata      *bool    `json:"upload_to_pinata" yaml:"upload_to_pinata"`
	UploadProvider      *string  `json:"upload_provider" yaml:"upload_provider"`
	ImagesDir           *string  `json:"images_dir" yaml:"images_dir"`
	ImageExtensions     []string `json:"image_extensions" yaml:"image_extensions"`
	TokenURIs           []string `json:"token_uris" yaml:"token_uris"`
	MetadataDescription *string  `json:"metadata_description" yaml:"metadata_description"`
	MetadataTraitType   *string  `json:"metadata_trait_type" yaml:"metadata_trait_type"`

	PinataJWT       *string `json:"pinata_jwt" yaml:"pinata_jwt"`
	PinataAPIKey    *string `json:"pinata_api_key" yaml:"pinata_api_key"`
	PinataAPISecret *string `json:"pinata_api_secret" yaml:"pinata_api_secret"`
	PinataAPIURL    *string `json:"pinata_api_url" yaml:"pinata_api_url"`

	FilebaseAccessKey *string `json:"filebase_access_key" yaml:"filebase_access_key"`
	FilebaseSecretKey *string `json:"filebase_secret_key" yaml:"filebase_secret_key"`
	FilebaseBucket    *string `json:"filebase_bucket" yaml:"filebase_bucket"`
	FilebaseRegion    *string `json:"filebase_region" yaml:"filebase_region"`
	FilebaseEndpoint  *string `json:"filebase_endpoint" yaml:"filebase_endpoint"`

	EtherscanAPIKey    *string         `json:"etherscan_api_key" yaml:"etherscan_api_key"`
	EtherscanAPIURL    *string         `json:"etherscan_api_url" yaml:"etherscan_api_url"`
	VerifyPollInterval *timex.Duration `json:"verify_poll_interval" yaml:"verify_poll_interval"`
	VerifyMaxAttempts  *int            `json:"verify_max_attempts" yaml:"verify_max_attempts"`

	LedgerDriver *string `json:"ledger_driver" yaml:"ledger_driver"`
	DatabaseDSN  *string `json:"database_dsn" yaml:"database_dsn"`

	LogLevel *string `json:"log_level" yaml:"log_level"`
}

// parseFile overlays the JSON or YAML file at path onto cfg.
func parseFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, fc)
	default:
		err = json.Unmarshal(raw, fc)
	}
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.Network, fc.Network)
	setString(&cfg.RPCURL, fc.RPCURL)
	setString(&cfg.PrivateKey, fc.PrivateKey)
	if fc.BlockConfirmations != nil {
		cfg.BlockConfirmations = *fc.BlockConfirmations
	}
	setList(&cfg.DevelopmentChains, fc.DevelopmentChains)
	if fc.PollInterval != nil {
		cfg.PollInterval = fc.PollInterval.Duration
	}
	setString(&cfg.ArtifactsDir, fc.ArtifactsDir)
	setString(&cfg.NFTContract, fc.NFTContract)
	setString(&cfg.DAOContract, fc.DAOContract)

	if fc.UploadToPinata != nil {
		cfg.UploadToPinata = *fc.UploadToPinata
	}
	setString(&cfg.UploadProvider, fc.UploadProvider)
	setString(&cfg.ImagesDir, fc.ImagesDir)
	setList(&cfg.ImageExtensions, fc.ImageExtensions)
	setList(&cfg.FallbackTokenURIs, fc.TokenURIs)
	setString(&cfg.MetadataDescription, fc.MetadataDescription)
	setString(&cfg.MetadataTraitType, fc.MetadataTraitType)

	setString(&cfg.Pinata.JWT, fc.PinataJWT)
	setString(&cfg.Pinata.APIKey, fc.PinataAPIKey)
	setString(&cfg.Pinata.APISecret, fc.PinataAPISecret)
	setString(&cfg.Pinata.APIURL, fc.PinataAPIURL)

	setString(&cfg.Filebase.AccessKey, fc.FilebaseAccessKey)
	setString(&cfg.Filebase.SecretKey, fc.FilebaseSecretKey)
	setString(&cfg.Filebase.Bucket, fc.FilebaseBucket)
	setString(&cfg.Filebase.Region, fc.FilebaseRegion)
	setString(&cfg.Filebase.Endpoint, fc.FilebaseEndpoint)

	setString(&cfg.EtherscanAPIKey, fc.EtherscanAPIKey)
	setString(&cfg.EtherscanAPIURL, fc.EtherscanAPIURL)
	if fc.VerifyPollInterval != nil {
		cfg.VerifyPollInterval = fc.VerifyPollInterval.Duration
	}
	if fc.VerifyMaxAttempts != nil {
		cfg.VerifyMaxAttempts = *fc.VerifyMaxAttempts
	}

	setString(&cfg.LedgerDriver, fc.LedgerDriver)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.LogLevel, fc.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setList(dst *[]string, v []string) {
	if v != nil {
		*dst = append([]string(nil), v...)
	}
}
