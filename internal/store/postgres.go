package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/thinkloop-ai/procure-cli/internal/db"
	"github.com/thinkloop-ai/procure-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `mapstructure:"max_conns"`
	MinConns int32 `mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	id                TEXT PRIMARY KEY,
	product           TEXT NOT NULL DEFAULT '',
	rehearsal         BOOLEAN NOT NULL,
	aborted           BOOLEAN NOT NULL DEFAULT false,
	abort_reason      TEXT NOT NULL DEFAULT '',
	total_candidates  INTEGER NOT NULL DEFAULT 0,
	ranked_candidates INTEGER NOT NULL DEFAULT 0,
	email_sent        INTEGER NOT NULL DEFAULT 0,
	email_failed      INTEGER NOT NULL DEFAULT 0,
	sms_sent          INTEGER NOT NULL DEFAULT 0,
	sms_failed        INTEGER NOT NULL DEFAULT 0,
	snapshot_path     TEXT NOT NULL DEFAULT '',
	started_at        TIMESTAMPTZ NOT NULL,
	ended_at          TIMESTAMPTZ NOT NULL,
	result            JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS campaign_attempts (
	campaign_id  TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
	rank         INTEGER NOT NULL,
	candidate_id TEXT NOT NULL DEFAULT '',
	supplier     TEXT NOT NULL,
	email_status TEXT NOT NULL,
	email_reason TEXT NOT NULL DEFAULT '',
	sms_status   TEXT NOT NULL,
	sms_reason   TEXT NOT NULL DEFAULT '',
	attempted_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_campaigns_started_at ON campaigns(started_at);
CREATE INDEX IF NOT EXISTS idx_campaign_attempts_campaign_id ON campaign_attempts(campaign_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const postgresUpsertCampaign = `INSERT INTO campaigns (id, product, rehearsal, aborted, abort_reason, total_candidates,
	ranked_candidates, email_sent, email_failed, sms_sent, sms_failed, snapshot_path, started_at, ended_at, result)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (id) DO UPDATE SET
	product = EXCLUDED.product, rehearsal = EXCLUDED.rehearsal, aborted = EXCLUDED.aborted,
	abort_reason = EXCLUDED.abort_reason, total_candidates = EXCLUDED.total_candidates,
	ranked_candidates = EXCLUDED.ranked_candidates, email_sent = EXCLUDED.email_sent,
	email_failed = EXCLUDED.email_failed, sms_sent = EXCLUDED.sms_sent, sms_failed = EXCLUDED.sms_failed,
	snapshot_path = EXCLUDED.snapshot_path, started_at = EXCLUDED.started_at, ended_at = EXCLUDED.ended_at,
	result = EXCLUDED.result`

// SaveCampaign upserts the campaign row and bulk-loads its attempts with
// COPY inside one transaction.
func (s *PostgresStore) SaveCampaign(ctx context.Context, result *model.CampaignResult, snapshotPath string) error {
	if err := validateResult(result); err != nil {
		return err
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}
	rec := recordFromResult(result, snapshotPath)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, postgresUpsertCampaign,
		rec.ID, rec.Product, rec.Rehearsal, rec.Aborted, rec.AbortReason, rec.TotalCandidates, rec.RankedCandidates,
		rec.EmailSent, rec.EmailFailed, rec.SMSSent, rec.SMSFailed, rec.SnapshotPath, rec.StartedAt, rec.EndedAt,
		resultJSON,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert campaign %s", rec.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM campaign_attempts WHERE campaign_id = $1`, rec.ID); err != nil {
		return eris.Wrapf(err, "postgres: clear attempts %s", rec.ID)
	}
	if _, err := db.CopyFrom(ctx, tx, "campaign_attempts", attemptColumns, attemptRows(result)); err != nil {
		return eris.Wrapf(err, "postgres: copy attempts %s", rec.ID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit campaign")
}

const postgresCampaignColumns = `id, product, rehearsal, aborted, abort_reason, total_candidates, ranked_candidates, ` +
	`email_sent, email_failed, sms_sent, sms_failed, snapshot_path, started_at, ended_at`

func (s *PostgresStore) GetCampaign(ctx context.Context, id string) (*CampaignRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresCampaignColumns+`, result FROM campaigns WHERE id = $1`, id)

	var resultJSON []byte
	rec, err := scanCampaign(row, &resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get campaign %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get campaign %s", id)
	}

	rec.Result = &model.CampaignResult{}
	if err := json.Unmarshal(resultJSON, rec.Result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	return rec, nil
}

func (s *PostgresStore) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]CampaignRecord, error) {
	query := `SELECT ` + postgresCampaignColumns + ` FROM campaigns WHERE true`
	var args []any

	if filter.Rehearsal != nil {
		args = append(args, *filter.Rehearsal)
		query += ` AND rehearsal = $1`
	}
	query += ` ORDER BY started_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT ` + placeholder(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET ` + placeholder(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list campaigns")
	}
	defer rows.Close()

	var out []CampaignRecord
	for rows.Next() {
		rec, err := scanCampaign(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan campaign")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list campaigns iterate")
}

func (s *PostgresStore) ListAttempts(ctx context.Context, campaignID string) ([]AttemptRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT campaign_id, rank, candidate_id, supplier, email_status, email_reason, sms_status, sms_reason, attempted_at
		FROM campaign_attempts WHERE campaign_id = $1 ORDER BY rank`, campaignID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list attempts")
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var a AttemptRecord
		var emailStatus, smsStatus string
		if err := rows.Scan(&a.CampaignID, &a.Rank, &a.CandidateID, &a.Supplier,
			&emailStatus, &a.EmailReason, &smsStatus, &a.SMSReason, &a.AttemptedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan attempt")
		}
		a.EmailStatus = model.OutcomeStatus(emailStatus)
		a.SMSStatus = model.OutcomeStatus(smsStatus)
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list attempts iterate")
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
