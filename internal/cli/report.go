package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/fundingdeploy/internal/deploy"
	"github.com/dmitrijs2005/fundingdeploy/internal/filex"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
)

// Report is the machine-readable outcome of a run.
type Report struct {
	RunID                string          `json:"run_id,omitempty"`
	Network              string          `json:"network"`
	State                models.RunState `json:"state"`
	TokenURIs            []string        `json:"token_uris"`
	NFT                  ContractReport  `json:"nft"`
	DAO                  ContractReport  `json:"dao"`
	VerificationFailures []string        `json:"verification_failures,omitempty"`
}

type ContractReport struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	TxHash          string `json:"tx_hash"`
	BlockNumber     uint64 `json:"block_number"`
	ConstructorArgs string `json:"constructor_args"`
	Verified        bool   `json:"verified"`
}

func NewReport(res *deploy.Result) Report {
	r := Report{
		RunID:     res.RunID,
		Network:   res.Network,
		State:     res.State,
		TokenURIs: res.TokenURIs,
		NFT:       contractReport(res.NFT),
		DAO:       contractReport(res.DAO),
	}
	if r.TokenURIs == nil {
		r.TokenURIs = []string{}
	}
	for _, err := range res.VerificationFailures {
		r.VerificationFailures = append(r.VerificationFailures, err.Error())
	}
	return r
}

func contractReport(d models.Deployment) ContractReport {
	return ContractReport{
		Name:            d.ContractName,
		Address:         d.Address.Hex(),
		TxHash:          d.TxHash.Hex(),
		BlockNumber:     d.BlockNumber,
		ConstructorArgs: d.EncodedArgs,
		Verified:        d.Verified,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// saveReport writes r to path, creating missing parent directories.
func saveReport(path string, r Report) error {
	abs, err := filex.EnsureParentDir(path)
	if err != nil {
		return fmt.Errorf("report directory: %w", err)
	}
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	if err := writeJSON(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
