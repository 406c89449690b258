package nonce

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/aarondl/sqlboiler/v4/boil"
	"github.com/aarondl/sqlboiler/v4/queries"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-remote-wallet/internal/util/db"
)

// PostgresStore keeps nonce state in the wallet_nonces and wallet_pending_submissions tables,
// scoped to one chain id. Addresses are stored lowercased.
type PostgresStore struct {
	db      *sql.DB
	chainID int64
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(sqlDB *sql.DB, chainID int64) *PostgresStore {
	return &PostgresStore{db: sqlDB, chainID: chainID}
}

type nonceRow struct {
	LastUsed int64 `boil:"last_used"`
}

type pendingRow struct {
	Nonce       int64     `boil:"nonce"`
	TxHash      string    `boil:"tx_hash"`
	SubmittedAt null.Time `boil:"submitted_at"`
}

func addressKey(account common.Address) string {
	return strings.ToLower(account.Hex())
}

func (p *PostgresStore) LastUsed(ctx context.Context, account common.Address) (uint64, bool, error) {
	var row nonceRow
	err := queries.Raw(
		`SELECT last_used FROM wallet_nonces WHERE chain_id = $1 AND address = $2`,
		p.chainID, addressKey(account),
	).Bind(ctx, p.db, &row)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to load wallet nonce")
	}

	//nolint:gosec // last_used is constrained to be non-negative
	return uint64(row.LastUsed), true, nil
}

func (p *PostgresStore) RecordConfirmed(ctx context.Context, account common.Address, n uint64, at time.Time) error {
	//nolint:gosec // nonces stay far below 2^63
	_, err := queries.Raw(
		`INSERT INTO wallet_nonces (chain_id, address, last_used, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chain_id, address)
		DO UPDATE SET last_used = GREATEST(wallet_nonces.last_used, EXCLUDED.last_used), updated_at = EXCLUDED.updated_at`,
		p.chainID, addressKey(account), int64(n), at,
	).ExecContext(ctx, p.db)
	if err != nil {
		return errors.Wrap(err, "failed to record confirmed nonce")
	}

	return nil
}

func (p *PostgresStore) Pending(ctx context.Context, account common.Address) (*PendingSubmission, error) {
	var row pendingRow
	err := queries.Raw(
		`SELECT nonce, tx_hash, submitted_at FROM wallet_pending_submissions WHERE chain_id = $1 AND address = $2`,
		p.chainID, addressKey(account),
	).Bind(ctx, p.db, &row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pending submission")
	}

	return &PendingSubmission{
		Account: account,
		//nolint:gosec // nonce is constrained to be non-negative
		Nonce:       uint64(row.Nonce),
		Hash:        common.HexToHash(row.TxHash),
		SubmittedAt: row.SubmittedAt.Time,
	}, nil
}

func (p *PostgresStore) SetPending(ctx context.Context, pending PendingSubmission) error {
	return db.WithTransaction(ctx, p.db, func(tx boil.ContextExecutor) error {
		//nolint:gosec // nonces stay far below 2^63
		_, err := queries.Raw(
			`INSERT INTO wallet_pending_submissions (chain_id, address, nonce, tx_hash, submitted_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (chain_id, address)
			DO UPDATE SET nonce = EXCLUDED.nonce, tx_hash = EXCLUDED.tx_hash, submitted_at = EXCLUDED.submitted_at`,
			p.chainID, addressKey(pending.Account), int64(pending.Nonce), pending.Hash.Hex(), null.TimeFrom(pending.SubmittedAt),
		).ExecContext(ctx, tx)
		if err != nil {
			return errors.Wrap(err, "failed to store pending submission")
		}

		return nil
	})
}

func (p *PostgresStore) ClearPending(ctx context.Context, account common.Address, hash common.Hash) error {
	_, err := queries.Raw(
		`DELETE FROM wallet_pending_submissions WHERE chain_id = $1 AND address = $2 AND tx_hash = $3`,
		p.chainID, addressKey(account), hash.Hex(),
	).ExecContext(ctx, p.db)
	if err != nil {
		return errors.Wrap(err, "failed to clear pending submission")
	}

	return nil
}
