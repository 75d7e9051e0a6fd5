package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/thinkloop-ai/procure-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	id                TEXT PRIMARY KEY,
	product           TEXT NOT NULL DEFAULT '',
	rehearsal         INTEGER NOT NULL,
	aborted           INTEGER NOT NULL DEFAULT 0,
	abort_reason      TEXT NOT NULL DEFAULT '',
	total_candidates  INTEGER NOT NULL DEFAULT 0,
	ranked_candidates INTEGER NOT NULL DEFAULT 0,
	email_sent        INTEGER NOT NULL DEFAULT 0,
	email_failed      INTEGER NOT NULL DEFAULT 0,
	sms_sent          INTEGER NOT NULL DEFAULT 0,
	sms_failed        INTEGER NOT NULL DEFAULT 0,
	snapshot_path     TEXT NOT NULL DEFAULT '',
	started_at        DATETIME NOT NULL,
	ended_at          DATETIME NOT NULL,
	result            TEXT NOT NULL
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
	attempted_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_campaigns_started_at ON campaigns(started_at);
CREATE INDEX IF NOT EXISTS idx_campaign_attempts_campaign_id ON campaign_attempts(campaign_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveCampaign(ctx context.Context, result *model.CampaignResult, snapshotPath string) error {
	if err := validateResult(result); err != nil {
		return err
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}
	rec := recordFromResult(result, snapshotPath)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range []string{
		`DELETE FROM campaign_attempts WHERE campaign_id = ?`,
		`DELETE FROM campaigns WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, rec.ID); err != nil {
			return eris.Wrapf(err, "sqlite: replace campaign %s", rec.ID)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO campaigns (id, product, rehearsal, aborted, abort_reason, total_candidates, ranked_candidates,
			email_sent, email_failed, sms_sent, sms_failed, snapshot_path, started_at, ended_at, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Product, rec.Rehearsal, rec.Aborted, rec.AbortReason, rec.TotalCandidates, rec.RankedCandidates,
		rec.EmailSent, rec.EmailFailed, rec.SMSSent, rec.SMSFailed, rec.SnapshotPath, rec.StartedAt, rec.EndedAt,
		string(resultJSON),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert campaign %s", rec.ID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO campaign_attempts (campaign_id, rank, candidate_id, supplier, email_status, email_reason,
			sms_status, sms_reason, attempted_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare attempt insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, row := range attemptRows(result) {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sqlite: insert attempt for %s", rec.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit campaign")
}

const sqliteCampaignColumns = `id, product, rehearsal, aborted, abort_reason, total_candidates, ranked_candidates,
	email_sent, email_failed, sms_sent, sms_failed, snapshot_path, started_at, ended_at`

func (s *SQLiteStore) GetCampaign(ctx context.Context, id string) (*CampaignRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteCampaignColumns+`, result FROM campaigns WHERE id = ?`, id)

	var resultJSON string
	rec, err := scanCampaign(row, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get campaign %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get campaign %s", id)
	}

	rec.Result = &model.CampaignResult{}
	if err := json.Unmarshal([]byte(resultJSON), rec.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return rec, nil
}

func (s *SQLiteStore) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]CampaignRecord, error) {
	query := `SELECT ` + sqliteCampaignColumns + ` FROM campaigns WHERE 1=1`
	var args []any

	if filter.Rehearsal != nil {
		query += ` AND rehearsal = ?`
		args = append(args, *filter.Rehearsal)
	}
	query += ` ORDER BY started_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list campaigns")
	}
	defer rows.Close() //nolint:errcheck

	var out []CampaignRecord
	for rows.Next() {
		rec, err := scanCampaign(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan campaign")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list campaigns iterate")
}

func (s *SQLiteStore) ListAttempts(ctx context.Context, campaignID string) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT campaign_id, rank, candidate_id, supplier, email_status, email_reason, sms_status, sms_reason, attempted_at
		FROM campaign_attempts WHERE campaign_id = ? ORDER BY rank`, campaignID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list attempts")
	}
	defer rows.Close() //nolint:errcheck

	var out []AttemptRecord
	for rows.Next() {
		var a AttemptRecord
		if err := rows.Scan(&a.CampaignID, &a.Rank, &a.CandidateID, &a.Supplier,
			&a.EmailStatus, &a.EmailReason, &a.SMSStatus, &a.SMSReason, &a.AttemptedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan attempt")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list attempts iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

// scanCampaign reads the summary columns, followed by extra destinations.
func scanCampaign(row scannable, extra ...any) (*CampaignRecord, error) {
	var r CampaignRecord
	dest := []any{
		&r.ID, &r.Product, &r.Rehearsal, &r.Aborted, &r.AbortReason, &r.TotalCandidates, &r.RankedCandidates,
		&r.EmailSent, &r.EmailFailed, &r.SMSSent, &r.SMSFailed, &r.SnapshotPath, &r.StartedAt, &r.EndedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &r, nil
}
