package deploy

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/dmitrijs2005/fundingdeploy/internal/logging"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deployCall struct {
	contract string
	args     []any
}

type fakeDeployer struct {
	calls    []deployCall
	waits    []uint64
	failOn   string
	waitErr  error
	nextAddr byte
}

func (f *fakeDeployer) Deploy(_ context.Context, contract string, args ...any) (models.Deployment, error) {
	f.calls = append(f.calls, deployCall{contract: contract, args: args})
	if contract == f.failOn {
		return models.Deployment{}, fmt.Errorf("%w: out of gas", common.ErrDeployment)
	}
	f.nextAddr++
	return models.Deployment{
		ContractName: contract,
		Address:      ethcommon.BytesToAddress([]byte{f.nextAddr}),
		BlockNumber:  uint64(f.nextAddr),
	}, nil
}

func (f *fakeDeployer) WaitForConfirmations(_ context.Context, _ models.Deployment, n uint64) error {
	f.waits = append(f.waits, n)
	return f.waitErr
}

type fakeVerifier struct {
	verified []string
	failFor  map[string]bool
}

func (f *fakeVerifier) Verify(_ context.Context, d models.Deployment) error {
	f.verified = append(f.verified, d.ContractName)
	if f.failFor[d.ContractName] {
		return fmt.Errorf("%w: %s", common.ErrVerification, d.ContractName)
	}
	return nil
}

type fakeRecorder struct {
	events []string
	err    error
}

func (f *fakeRecorder) StartRun(_ context.Context, run *models.Run) error {
	run.ID = "run-1"
	f.events = append(f.events, fmt.Sprintf("start %s %d", run.Network, run.TokenURICount))
	return f.err
}

func (f *fakeRecorder) RecordDeployment(_ context.Context, runID string, state models.RunState, d *models.Deployment) error {
	f.events = append(f.events, fmt.Sprintf("deployment %s %s %s", runID, state, d.ContractName))
	return f.err
}

func (f *fakeRecorder) MarkVerified(_ context.Context, d models.Deployment) error {
	f.events = append(f.events, "verified "+d.ContractName)
	return f.err
}

func (f *fakeRecorder) RecordState(_ context.Context, runID string, state models.RunState) error {
	f.events = append(f.events, fmt.Sprintf("state %s %s", runID, state))
	return f.err
}

func TestShouldVerify(t *testing.T) {
	tests := []struct {
		network string
		key     string
		want    bool
	}{
		{"hardhat", "KEY", false},
		{"localhost", "KEY", false},
		{"sepolia", "KEY", true},
		{"sepolia", "", false},
		{"hardhat", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.network+"/"+tc.key, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldVerify(tc.network, DefaultDevelopmentChains, tc.key))
		})
	}
}

func TestRun_DeploysNFTThenDAOWithSoleArguments(t *testing.T) {
	dep := &fakeDeployer{}
	o := NewOrchestrator(dep, nil, nil, Options{Network: "hardhat", Confirmations: 1}, logging.Discard())

	uris := []string{"ipfs://Q-a", "ipfs://Q-b"}
	res, err := o.Run(context.Background(), uris)
	require.NoError(t, err)

	require.Len(t, dep.calls, 2)
	assert.Equal(t, deployCall{contract: "FundingNFT", args: []any{uris}}, dep.calls[0])
	assert.Equal(t, deployCall{contract: "FundingDAO", args: []any{res.NFT.Address}}, dep.calls[1])
	assert.Equal(t, []uint64{1, 1}, dep.waits)

	assert.Equal(t, models.RunStateDone, res.State)
	assert.Equal(t, uris, res.TokenURIs)
	assert.Empty(t, res.VerificationFailures)
}

func TestRun_EmptyURIListStillDeploys(t *testing.T) {
	dep := &fakeDeployer{}
	o := NewOrchestrator(dep, nil, nil, Options{Network: "hardhat"}, logging.Discard())

	_, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, dep.calls, 2)
	assert.Equal(t, []any{[]string{}}, dep.calls[0].args)
}

func TestRun_NFTFailureStopsBeforeDAO(t *testing.T) {
	dep := &fakeDeployer{failOn: "FundingNFT"}
	rec := &fakeRecorder{}
	o := NewOrchestrator(dep, &fakeVerifier{}, rec, Options{Network: "sepolia", Verify: true}, logging.Discard())

	res, err := o.Run(context.Background(), []string{"ipfs://Q"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, common.ErrDeployment)
	require.Len(t, dep.calls, 1)
	assert.Equal(t, []string{"start sepolia 1", "state run-1 failed"}, rec.events)
}

func TestRun_ConfirmationFailureIsDeploymentError(t *testing.T) {
	dep := &fakeDeployer{waitErr: context.DeadlineExceeded}
	o := NewOrchestrator(dep, nil, nil, Options{Network: "hardhat", Confirmations: 6}, logging.Discard())

	_, err := o.Run(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrDeployment)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, dep.calls, 1)
}

func TestRun_DAOFailure(t *testing.T) {
	dep := &fakeDeployer{failOn: "FundingDAO"}
	v := &fakeVerifier{}
	o := NewOrchestrator(dep, v, nil, Options{Network: "sepolia", Verify: true}, logging.Discard())

	_, err := o.Run(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrDeployment)
	assert.Len(t, dep.calls, 2)
	assert.Empty(t, v.verified)
}

func TestRun_VerifiesBothWhenEnabled(t *testing.T) {
	v := &fakeVerifier{}
	rec := &fakeRecorder{}
	o := NewOrchestrator(&fakeDeployer{}, v, rec, Options{Network: "sepolia", Verify: true}, logging.Discard())

	res, err := o.Run(context.Background(), []string{"ipfs://Q"})
	require.NoError(t, err)

	assert.Equal(t, []string{"FundingNFT", "FundingDAO"}, v.verified)
	assert.True(t, res.NFT.Verified)
	assert.True(t, res.DAO.Verified)
	assert.Equal(t, "run-1", res.RunID)

	want := []string{
		"start sepolia 1",
		"deployment run-1 nft_deployed FundingNFT",
		"deployment run-1 dao_deployed FundingDAO",
		"verified FundingNFT",
		"verified FundingDAO",
		"state run-1 verified",
		"state run-1 done",
	}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("ledger events mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_VerificationFailuresAreNotFatal(t *testing.T) {
	v := &fakeVerifier{failFor: map[string]bool{"FundingNFT": true}}
	o := NewOrchestrator(&fakeDeployer{}, v, nil, Options{Network: "sepolia", Verify: true}, logging.Discard())

	res, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"FundingNFT", "FundingDAO"}, v.verified)
	require.Len(t, res.VerificationFailures, 1)
	assert.ErrorIs(t, res.VerificationFailures[0], common.ErrVerification)
	assert.False(t, res.NFT.Verified)
	assert.True(t, res.DAO.Verified)
	assert.Equal(t, models.RunStateDone, res.State)
}

func TestRun_NoVerificationOnDevelopmentNetwork(t *testing.T) {
	v := &fakeVerifier{}
	verify := ShouldVerify("hardhat", DefaultDevelopmentChains, "KEY")
	rec := &fakeRecorder{}
	o := NewOrchestrator(&fakeDeployer{}, v, rec, Options{Network: "hardhat", Verify: verify}, logging.Discard())

	_, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, v.verified)
	assert.Contains(t, rec.events, "state run-1 skipped")
}

func TestRun_LedgerFailuresAreIgnored(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	o := NewOrchestrator(&fakeDeployer{}, &fakeVerifier{}, rec, Options{Network: "sepolia", Verify: true}, logging.Discard())

	res, err := o.Run(context.Background(), []string{"ipfs://Q"})
	require.NoError(t, err)
	assert.Equal(t, models.RunStateDone, res.State)
	assert.Len(t, rec.events, 7)
}

func TestNewOrchestrator_CustomContractNames(t *testing.T) {
	dep := &fakeDeployer{}
	o := NewOrchestrator(dep, nil, nil, Options{NFTContract: "MyNFT", DAOContract: "MyDAO"}, logging.Discard())

	_, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "MyNFT", dep.calls[0].contract)
	assert.Equal(t, "MyDAO", dep.calls[1].contract)
}
