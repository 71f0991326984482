package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/dmitrijs2005/fundingdeploy/internal/dbx"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type Ledger struct {
	db       *sql.DB
	numbered bool
	now      func() time.Time
	newID    func() string
}

// New wraps an open database. numbered selects $N placeholders.
func New(db *sql.DB, numbered bool) *Ledger {
	return &Ledger{
		db:       db,
		numbered: numbered,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) q(query string) string {
	return dbx.Rebind(l.numbered, query)
}

// StartRun inserts run, assigning an id and start time when missing.
func (l *Ledger) StartRun(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = l.newID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = l.now()
	}
	if run.State == "" {
		run.State = models.RunStateStart
	}
	run.UpdatedAt = run.StartedAt

	_, err := l.db.ExecContext(ctx, l.q(`
		INSERT INTO runs (id, network, token_uri_count, state, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		run.ID, run.Network, run.TokenURICount, string(run.State), run.StartedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordDeployment stores d and moves the run to state in one transaction.
func (l *Ledger) RecordDeployment(ctx context.Context, runID string, state models.RunState, d *models.Deployment) error {
	if d.ID == "" {
		d.ID = l.newID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = l.now()
	}

	return dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, l.q(`
			INSERT INTO deployments
				(id, run_id, contract_name, address, tx_hash, block_number, encoded_args, verified, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			d.ID, runID, d.ContractName, d.Address.Hex(), d.TxHash.Hex(),
			int64(d.BlockNumber), d.EncodedArgs, d.Verified, d.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert deployment: %w", err)
		}
		return l.setState(ctx, tx, runID, state)
	})
}

// MarkVerified flags a stored deployment as verified.
func (l *Ledger) MarkVerified(ctx context.Context, d models.Deployment) error {
	res, err := l.db.ExecContext(ctx, l.q(`UPDATE deployments SET verified = ? WHERE id = ?`), true, d.ID)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return expectOne(res, "deployment", d.ID)
}

// RecordState moves the run to state.
func (l *Ledger) RecordState(ctx context.Context, runID string, state models.RunState) error {
	return l.setState(ctx, l.db, runID, state)
}

func (l *Ledger) setState(ctx context.Context, db dbx.DBTX, runID string, state models.RunState) error {
	res, err := db.ExecContext(ctx, l.q(`UPDATE runs SET state = ?, updated_at = ? WHERE id = ?`),
		string(state), l.now(), runID)
	if err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	return expectOne(res, "run", runID)
}

// LatestRun returns the most recently started run on network.
func (l *Ledger) LatestRun(ctx context.Context, network string) (models.Run, error) {
	var (
		run   models.Run
		state string
	)
	err := l.db.QueryRowContext(ctx, l.q(`
		SELECT id, network, token_uri_count, state, started_at, updated_at
		FROM runs
		WHERE network = ?
		ORDER BY started_at DESC
		LIMIT 1`), network).
		Scan(&run.ID, &run.Network, &run.TokenURICount, &state, &run.StartedAt, &run.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Run{}, fmt.Errorf("run on %s: %w", network, common.ErrorNotFound)
	}
	if err != nil {
		return models.Run{}, fmt.Errorf("select run: %w", err)
	}
	run.State = models.RunState(state)
	return run, nil
}

// ListDeployments returns the deployments of a run in chain order.
func (l *Ledger) ListDeployments(ctx context.Context, runID string) ([]models.Deployment, error) {
	rows, err := l.db.QueryContext(ctx, l.q(`
		SELECT id, contract_name, address, tx_hash, block_number, encoded_args, verified, created_at
		FROM deployments
		WHERE run_id = ?
		ORDER BY block_number, created_at`), runID)
	if err != nil {
		return nil, fmt.Errorf("select deployments: %w", err)
	}
	defer rows.Close()

	var out []models.Deployment
	for rows.Next() {
		var (
			d            models.Deployment
			addr, txHash string
			block        int64
		)
		if err := rows.Scan(&d.ID, &d.ContractName, &addr, &txHash, &block, &d.EncodedArgs, &d.Verified, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deployment: %w", err)
		}
		d.Address = ethcommon.HexToAddress(addr)
		d.TxHash = ethcommon.HexToHash(txHash)
		d.BlockNumber = uint64(block)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deployments: %w", err)
	}
	return out, nil
}

func expectOne(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, common.ErrorNotFound)
	}
	return nil
}
