package ui

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fundingdeploy/internal/deploy"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
)

// DeploySummary renders the outcome of a deployment run.
func DeploySummary(res *deploy.Result) string {
	var b strings.Builder

	b.WriteString(FormatTitle("Deployment on "+res.Network) + "\n")
	if res.RunID != "" {
		b.WriteString(Field("run", res.RunID) + "\n")
	}
	b.WriteString(Field("token URIs", fmt.Sprintf("%d", len(res.TokenURIs))) + "\n")
	for _, d := range []models.Deployment{res.NFT, res.DAO} {
		b.WriteString(deploymentLine(d) + "\n")
	}

	for _, err := range res.VerificationFailures {
		b.WriteString(FormatWarning("verification: "+err.Error()) + "\n")
	}
	b.WriteString(FormatSuccess("state "+string(res.State)) + "\n")
	return b.String()
}

// History renders a recorded run and its deployments.
func History(run models.Run, deployments []models.Deployment) string {
	var b strings.Builder

	b.WriteString(FormatTitle("Last run on "+run.Network) + "\n")
	b.WriteString(Field("run", run.ID) + "\n")
	b.WriteString(Field("state", string(run.State)) + "\n")
	b.WriteString(Field("started", run.StartedAt.Format("2006-01-02 15:04:05")) + "\n")
	b.WriteString(Field("token URIs", fmt.Sprintf("%d", run.TokenURICount)) + "\n")
	if len(deployments) == 0 {
		b.WriteString(FormatMuted("no contracts recorded") + "\n")
	}
	for _, d := range deployments {
		b.WriteString(deploymentLine(d) + "\n")
	}
	return b.String()
}

func deploymentLine(d models.Deployment) string {
	status := FormatMuted("unverified")
	if d.Verified {
		status = FormatSuccess("verified")
	}
	return Field(d.ContractName, fmt.Sprintf("%s block %d %s", d.Address.Hex(), d.BlockNumber, status))
}
