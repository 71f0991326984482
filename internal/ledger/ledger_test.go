package ledger

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/dmitrijs2005/fundingdeploy/internal/logging"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	l, err := Open(context.Background(), DriverSQLite, path, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return l
}

func TestLedger_RunLifecycle(t *testing.T) {
	l := openSQLite(t)
	ctx := context.Background()

	run := &models.Run{Network: "sepolia", TokenURICount: 3}
	require.NoError(t, l.StartRun(ctx, run))
	require.NotEmpty(t, run.ID)
	assert.Equal(t, models.RunStateStart, run.State)

	nft := &models.Deployment{
		ContractName: "FundingNFT",
		Address:      ethcommon.HexToAddress("0x1111111111111111111111111111111111111111"),
		TxHash:       ethcommon.HexToHash("0xaa"),
		BlockNumber:  7,
		EncodedArgs:  "00",
	}
	require.NoError(t, l.RecordDeployment(ctx, run.ID, models.RunStateNFTDeployed, nft))
	require.NotEmpty(t, nft.ID)

	dao := &models.Deployment{
		ContractName: "FundingDAO",
		Address:      ethcommon.HexToAddress("0x2222222222222222222222222222222222222222"),
		TxHash:       ethcommon.HexToHash("0xbb"),
		BlockNumber:  8,
	}
	require.NoError(t, l.RecordDeployment(ctx, run.ID, models.RunStateDAODeployed, dao))

	require.NoError(t, l.MarkVerified(ctx, *dao))
	require.NoError(t, l.RecordState(ctx, run.ID, models.RunStateDone))

	latest, err := l.LatestRun(ctx, "sepolia")
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, 3, latest.TokenURICount)
	assert.Equal(t, models.RunStateDone, latest.State)
	assert.True(t, latest.UpdatedAt.After(latest.StartedAt))

	deps, err := l.ListDeployments(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, deps, 2)

	assert.Equal(t, nft.ID, deps[0].ID)
	assert.Equal(t, nft.Address, deps[0].Address)
	assert.Equal(t, nft.TxHash, deps[0].TxHash)
	assert.Equal(t, uint64(7), deps[0].BlockNumber)
	assert.Equal(t, "00", deps[0].EncodedArgs)
	assert.False(t, deps[0].Verified)

	assert.Equal(t, "FundingDAO", deps[1].ContractName)
	assert.True(t, deps[1].Verified)
}

func TestLedger_LatestRun_PicksNewest(t *testing.T) {
	l := openSQLite(t)
	ctx := context.Background()

	first := &models.Run{Network: "sepolia"}
	second := &models.Run{Network: "sepolia"}
	other := &models.Run{Network: "mainnet"}
	require.NoError(t, l.StartRun(ctx, first))
	require.NoError(t, l.StartRun(ctx, second))
	require.NoError(t, l.StartRun(ctx, other))

	got, err := l.LatestRun(ctx, "sepolia")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = l.LatestRun(ctx, "goerli")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLedger_UnknownIDs(t *testing.T) {
	l := openSQLite(t)
	ctx := context.Background()

	assert.ErrorIs(t, l.RecordState(ctx, "missing", models.RunStateDone), common.ErrorNotFound)
	assert.ErrorIs(t, l.MarkVerified(ctx, models.Deployment{ID: "missing"}), common.ErrorNotFound)
}

func TestLedger_RecordDeployment_RollsBackWhenRunMissing(t *testing.T) {
	l := openSQLite(t)
	ctx := context.Background()

	run := &models.Run{Network: "sepolia"}
	require.NoError(t, l.StartRun(ctx, run))

	// the deployment insert succeeds but the state update finds no run
	err := l.RecordDeployment(ctx, "ghost", models.RunStateNFTDeployed, &models.Deployment{ContractName: "FundingNFT"})
	require.Error(t, err)

	var n int
	require.NoError(t, l.db.QueryRow(`SELECT COUNT(*) FROM deployments`).Scan(&n))
	assert.Zero(t, n)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn", logging.Discard())
	assert.ErrorContains(t, err, "unsupported ledger driver")
}

func TestOpen_MigrationError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return errors.New("boom")
	}

	_, err := Open(context.Background(), DriverSQLite, ":memory:", logging.Discard())
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, "sqlite", gotDir)
}

func TestOpen_PostgresUsesPgxDialect(t *testing.T) {
	origUp, origOpen := gooseUpContext, sqlOpen
	t.Cleanup(func() {
		gooseUpContext = origUp
		sqlOpen = origOpen
	})

	db, _, err := sqlmock.New()
	require.NoError(t, err)

	var gotDriver, gotDir string
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		gotDriver = driver
		return db, nil
	}
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	l, err := Open(context.Background(), DriverPostgres, "postgres://localhost/ledger", logging.Discard())
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, "pgx", gotDriver)
	assert.Equal(t, "postgres", gotDir)
	assert.True(t, l.numbered)
}

func newMockLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	l := New(db, true)
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	l.newID = func() string { return "id-1" }
	return l, mock
}

func TestLedger_Postgres_StartRunPlaceholders(t *testing.T) {
	l, mock := newMockLedger(t)

	q := `(?s)^\s*INSERT\s+INTO\s+runs\s*\(id,\s*network,\s*token_uri_count,\s*state,\s*started_at,\s*updated_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*$`
	mock.ExpectExec(q).
		WithArgs("id-1", "sepolia", 2, "start", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	run := &models.Run{Network: "sepolia", TokenURICount: 2}
	require.NoError(t, l.StartRun(context.Background(), run))
	assert.Equal(t, "id-1", run.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Postgres_RecordDeploymentRollsBack(t *testing.T) {
	l, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+deployments`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE runs SET state = $1, updated_at = $2 WHERE id = $3`)).
		WithArgs("nft_deployed", sqlmock.AnyArg(), "run-1").
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := l.RecordDeployment(context.Background(), "run-1", models.RunStateNFTDeployed, &models.Deployment{ContractName: "FundingNFT"})
	assert.ErrorContains(t, err, "db down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_ListDeployments_ScanError(t *testing.T) {
	l, mock := newMockLedger(t)

	rows := sqlmock.NewRows([]string{"id"}).AddRow("only-one-column")
	mock.ExpectQuery(`SELECT\s+id,\s*contract_name`).WithArgs("run-1").WillReturnRows(rows)

	_, err := l.ListDeployments(context.Background(), "run-1")
	assert.ErrorContains(t, err, "scan deployment")
}
