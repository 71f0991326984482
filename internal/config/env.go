package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var lookupEnv = os.LookupEnv

type envKind int

const (
	kindString envKind = iota
	kindList
	// kindExplicitList treats a set but empty variable as an empty list.
	kindExplicitList
	kindUint
	kindInt
	kindDuration
	kindFlag
)

type envBinding struct {
	name string
	kind envKind
	ptr  any
}

// envBindings lists every environment variable the CLI reads.
func envBindings(c *Config) []envBinding {
	return []envBinding{
		{"NETWORK", kindString, &c.Network},
		{"RPC_URL", kindString, &c.RPCURL},
		{"PRIVATE_KEY", kindString, &c.PrivateKey},
		{"BLOCK_CONFIRMATIONS", kindUint, &c.BlockConfirmations},
		{"DEVELOPMENT_CHAINS", kindList, &c.DevelopmentChains},
		{"POLL_INTERVAL", kindDuration, &c.PollInterval},
		{"ARTIFACTS_DIR", kindString, &c.ArtifactsDir},
		{"NFT_CONTRACT", kindString, &c.NFTContract},
		{"DAO_CONTRACT", kindString, &c.DAOContract},

		{"UPLOAD_TO_PINATA", kindFlag, &c.UploadToPinata},
		{"UPLOAD_PROVIDER", kindString, &c.UploadProvider},
		{"IMAGES_DIR", kindString, &c.ImagesDir},
		{"IMAGE_EXTENSIONS", kindList, &c.ImageExtensions},
		{"TOKEN_URIS", kindExplicitList, &c.FallbackTokenURIs},
		{"METADATA_DESCRIPTION", kindString, &c.MetadataDescription},
		{"METADATA_TRAIT_TYPE", kindString, &c.MetadataTraitType},

		{"PINATA_JWT", kindString, &c.Pinata.JWT},
		{"PINATA_API_KEY", kindString, &c.Pinata.APIKey},
		{"PINATA_API_SECRET", kindString, &c.Pinata.APISecret},
		{"PINATA_API_URL", kindString, &c.Pinata.APIURL},

		{"FILEBASE_ACCESS_KEY", kindString, &c.Filebase.AccessKey},
		{"FILEBASE_SECRET_KEY", kindString, &c.Filebase.SecretKey},
		{"FILEBASE_BUCKET", kindString, &c.Filebase.Bucket},
		{"FILEBASE_REGION", kindString, &c.Filebase.Region},
		{"FILEBASE_ENDPOINT", kindString, &c.Filebase.Endpoint},

		{"ETHERSCAN_API_KEY", kindString, &c.EtherscanAPIKey},
		{"ETHERSCAN_API_URL", kindString, &c.EtherscanAPIURL},
		{"VERIFY_POLL_INTERVAL", kindDuration, &c.VerifyPollInterval},
		{"VERIFY_MAX_ATTEMPTS", kindInt, &c.VerifyMaxAttempts},

		{"LEDGER_DRIVER", kindString, &c.LedgerDriver},
		{"DATABASE_DSN", kindString, &c.DatabaseDSN},
		{"LOG_LEVEL", kindString, &c.LogLevel},
	}
}

// parseEnv overlays set environment variables onto cfg. Empty values are
// treated as unset, except UPLOAD_TO_PINATA where only "true" enables it and
// TOKEN_URIS where an empty value deploys with no token URIs.
func parseEnv(cfg *Config) error {
	for _, b := range envBindings(cfg) {
		raw, ok := lookupEnv(b.name)
		if !ok {
			continue
		}

		switch b.kind {
		case kindFlag:
			*(b.ptr.(*bool)) = raw == "true"
			continue
		case kindExplicitList:
			*(b.ptr.(*[]string)) = splitCSV(raw)
			continue
		}

		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}

		switch b.kind {
		case kindString:
			*(b.ptr.(*string)) = v
		case kindList:
			*(b.ptr.(*[]string)) = splitCSV(v)
		case kindUint:
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", b.name, err)
			}
			*(b.ptr.(*uint64)) = n
		case kindInt:
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", b.name, err)
			}
			*(b.ptr.(*int)) = n
		case kindDuration:
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", b.name, err)
			}
			*(b.ptr.(*time.Duration)) = d
		}
	}
	return nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
