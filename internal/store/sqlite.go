// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Ch0c0l4tE/fraud/internal/model"
)

const schemaVersion = 1

// SQLiteStore persists records in a single SQLite database file. WAL mode
// and a busy timeout are set via the DSN so concurrent readers do not
// block the writer.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(ON)")

	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// modernc sqlite is single-writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}
	return db, nil
}

func (s *SQLiteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version >= schemaVersion {
		return nil
	}

	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id                 TEXT PRIMARY KEY,
	client_id          TEXT NOT NULL,
	device_fingerprint TEXT NOT NULL,
	created_at         INTEGER NOT NULL,
	completed_at       INTEGER,
	metadata           TEXT
);
CREATE TABLE IF NOT EXISTS signals (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	type       TEXT NOT NULL,
	timestamp  INTEGER NOT NULL,
	payload    TEXT
);
CREATE INDEX IF NOT EXISTS idx_signals_session ON signals(session_id, timestamp);
CREATE TABLE IF NOT EXISTS analyses (
	session_id       TEXT PRIMARY KEY REFERENCES sessions(id),
	verdict          TEXT NOT NULL,
	confidence_score REAL NOT NULL,
	risk_factors     TEXT NOT NULL,
	model_version    TEXT NOT NULL,
	evaluated_at     INTEGER NOT NULL
);`

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *model.Session) error {
	meta, err := marshalJSON(sess.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, client_id, device_fingerprint, created_at, completed_at, metadata)
		 VALUES (?, ?, ?, ?, NULL, ?)`,
		sess.ID, sess.ClientID, sess.DeviceFingerprint, sess.CreatedAt.UnixMilli(), meta)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create session %q: %w", sess.ID, ErrDuplicateSession)
		}
		return fmt.Errorf("create session %q: %w", sess.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, client_id, device_fingerprint, created_at, completed_at, metadata
		 FROM sessions WHERE id = ?`, id)
	return scanSession(row, id)
}

func (s *SQLiteStore) SessionExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("session exists %q: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) SessionsByClient(ctx context.Context, clientID string, limit int) ([]model.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_id, device_fingerprint, created_at, completed_at, metadata
		 FROM sessions WHERE client_id = ? ORDER BY created_at DESC LIMIT ?`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("sessions for client %q: %w", clientID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Session
	for rows.Next() {
		var (
			sess        model.Session
			createdAt   int64
			completedAt sql.NullInt64
			meta        sql.NullString
		)
		if err := rows.Scan(&sess.ID, &sess.ClientID, &sess.DeviceFingerprint, &createdAt, &completedAt, &meta); err != nil {
			return nil, err
		}
		sess.CreatedAt = time.UnixMilli(createdAt).UTC()
		if completedAt.Valid {
			t := time.UnixMilli(completedAt.Int64).UTC()
			sess.CompletedAt = &t
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &sess.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for %q: %w", sess.ID, err)
			}
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CompleteSession(ctx context.Context, id string) (*model.Session, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET completed_at = ? WHERE id = ?`, now.UnixMilli(), id)
	if err != nil {
		return nil, fmt.Errorf("complete session %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("complete session %q: %w", id, ErrSessionNotFound)
	}
	return s.GetSession(ctx, id)
}

func (s *SQLiteStore) AppendSignals(ctx context.Context, sessionID string, signals []model.Signal) error {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO signals (id, session_id, type, timestamp, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, sig := range signals {
		payload, err := marshalJSON(sig.Payload)
		if err != nil {
			return fmt.Errorf("encode payload for signal %q: %w", sig.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, sig.ID, sessionID, string(sig.Type), sig.Timestamp.UnixMilli(), payload); err != nil {
			return fmt.Errorf("insert signal %q: %w", sig.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) SignalsBySession(ctx context.Context, sessionID string) ([]model.Signal, error) {
	return s.querySignals(ctx, sessionID,
		`SELECT id, type, timestamp, payload FROM signals
		 WHERE session_id = ? ORDER BY timestamp ASC`, sessionID)
}

func (s *SQLiteStore) SignalsBySessionAndType(ctx context.Context, sessionID string, t model.SignalType) ([]model.Signal, error) {
	return s.querySignals(ctx, sessionID,
		`SELECT id, type, timestamp, payload FROM signals
		 WHERE session_id = ? AND type = ? ORDER BY timestamp ASC`, sessionID, string(t))
}

func (s *SQLiteStore) SignalsInRange(ctx context.Context, sessionID string, start, end time.Time) ([]model.Signal, error) {
	return s.querySignals(ctx, sessionID,
		`SELECT id, type, timestamp, payload FROM signals
		 WHERE session_id = ? AND timestamp BETWEEN ? AND ? ORDER BY timestamp ASC`,
		sessionID, start.UnixMilli(), end.UnixMilli())
}

func (s *SQLiteStore) querySignals(ctx context.Context, sessionID, query string, args ...any) ([]model.Signal, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("signals for %q: %w", sessionID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Signal
	for rows.Next() {
		var (
			sig     model.Signal
			typ     string
			ts      int64
			payload sql.NullString
		)
		if err := rows.Scan(&sig.ID, &typ, &ts, &payload); err != nil {
			return nil, err
		}
		sig.SessionID = sessionID
		sig.Type = model.SignalType(typ)
		sig.Timestamp = time.UnixMilli(ts).UTC()
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &sig.Payload); err != nil {
				return nil, fmt.Errorf("decode payload for signal %q: %w", sig.ID, err)
			}
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SignalCount(ctx context.Context, sessionID string) (int, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM signals WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("signal count for %q: %w", sessionID, err)
	}
	return n, nil
}

func (s *SQLiteStore) PutAnalysis(ctx context.Context, a *model.FraudAnalysis) error {
	factors, err := json.Marshal(a.RiskFactors)
	if err != nil {
		return fmt.Errorf("encode risk factors: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (session_id, verdict, confidence_score, risk_factors, model_version, evaluated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			verdict = excluded.verdict,
			confidence_score = excluded.confidence_score,
			risk_factors = excluded.risk_factors,
			model_version = excluded.model_version,
			evaluated_at = excluded.evaluated_at`,
		a.SessionID, string(a.Verdict), a.ConfidenceScore, string(factors), a.ModelVersion, a.EvaluatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("put analysis for %q: %w", a.SessionID, err)
	}
	return nil
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, sessionID string) (*model.FraudAnalysis, error) {
	var (
		a       model.FraudAnalysis
		verdict string
		factors string
		ts      int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, verdict, confidence_score, risk_factors, model_version, evaluated_at
		 FROM analyses WHERE session_id = ?`, sessionID).
		Scan(&a.SessionID, &verdict, &a.ConfidenceScore, &factors, &a.ModelVersion, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis for %q: %w", sessionID, ErrAnalysisNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("analysis for %q: %w", sessionID, err)
	}
	a.Verdict = model.Verdict(verdict)
	a.EvaluatedAt = time.UnixMilli(ts).UTC()
	if err := json.Unmarshal([]byte(factors), &a.RiskFactors); err != nil {
		return nil, fmt.Errorf("decode risk factors for %q: %w", sessionID, err)
	}
	return &a, nil
}

func (s *SQLiteStore) AnalysisExists(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analyses WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("analysis exists %q: %w", sessionID, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func scanSession(row *sql.Row, id string) (*model.Session, error) {
	var (
		sess        model.Session
		createdAt   int64
		completedAt sql.NullInt64
		meta        sql.NullString
	)
	err := row.Scan(&sess.ID, &sess.ClientID, &sess.DeviceFingerprint, &createdAt, &completedAt, &meta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session %q: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %q: %w", id, err)
	}
	sess.CreatedAt = time.UnixMilli(createdAt).UTC()
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		sess.CompletedAt = &t
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &sess.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %q: %w", id, err)
		}
	}
	return &sess, nil
}

func marshalJSON(m map[string]any) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite surfaces constraint failures via the message.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
