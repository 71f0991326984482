// Package config loads runtime configuration for the fundingdeploy CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file passed with -c/--config. The format is
//     picked from the extension (.yaml/.yml, anything else is JSON).
//  3. Environment variables, which override earlier values.
//
// # File schema
//
// Keys mirror the environment variable names in snake_case. Intervals use
// timex.Duration, so values can be strings like "2s" or integer nanoseconds:
//
//	network: sepolia
//	rpc_url: https://rpc.sepolia.org
//	block_confirmations: 6
//	upload_to_pinata: true
//	upload_provider: pinata
//	poll_interval: 2s
//	ledger_driver: sqlite
//	database_dsn: deployments/ledger.db
//
// # Environment
//
//	UPLOAD_TO_PINATA        "true" runs the token URI pipeline
//	UPLOAD_PROVIDER         pinata | filebase
//	NETWORK, RPC_URL        target network
//	PRIVATE_KEY             deployer key, hex
//	BLOCK_CONFIRMATIONS     confirmations to await per contract
//	ETHERSCAN_API_KEY       enables verification on public networks
//	LEDGER_DRIVER           sqlite | pgx | none
//	TOKEN_URIS              fallback URIs, comma separated; set but empty
//	                        means deploy with no tokens
//
// See envBindings for the full list.
package config
