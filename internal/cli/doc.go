// Package cli implements the fundingdeploy command line: the root command
// runs the whole deployment, token-uris runs only the upload pipeline and
// history prints what the ledger recorded for the configured network.
package cli
