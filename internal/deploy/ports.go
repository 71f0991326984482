package deploy

import (
	"context"

	"github.com/dmitrijs2005/fundingdeploy/internal/models"
)

// Deployer puts contracts on chain.
type Deployer interface {
	Deploy(ctx context.Context, contract string, args ...any) (models.Deployment, error)
	WaitForConfirmations(ctx context.Context, d models.Deployment, n uint64) error
}

// Verifier publishes contract sources to a block explorer.
type Verifier interface {
	Verify(ctx context.Context, d models.Deployment) error
}

// Recorder keeps a history of runs. Its failures never fail a run.
type Recorder interface {
	StartRun(ctx context.Context, run *models.Run) error
	RecordDeployment(ctx context.Context, runID string, state models.RunState, d *models.Deployment) error
	MarkVerified(ctx context.Context, d models.Deployment) error
	RecordState(ctx context.Context, runID string, state models.RunState) error
}
