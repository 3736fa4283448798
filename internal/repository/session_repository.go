package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"timelog/internal/model"
)

const sessionColumns = `s.id, s.activity_id, a.name, s.entry_type, s.status, s.start_time, s.end_time,
	s.last_heartbeat, s.pause_history, s.duration_seconds, s.created_at, s.updated_at`

const sessionFrom = ` FROM sessions s JOIN activities a ON a.id = s.activity_id`

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *SessionRepository) FindOpenTx(ctx context.Context, tx *sql.Tx) (*model.Session, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+sessionFrom+`
		 WHERE s.status IN (?, ?)
		 ORDER BY s.start_time
		 LIMIT 1`,
		model.StatusActive,
		model.StatusPaused,
	)
	return scanSession(row)
}

func (r *SessionRepository) GetTx(ctx context.Context, tx *sql.Tx, id string) (*model.Session, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+sessionColumns+sessionFrom+` WHERE s.id = ?`, id)
	return scanSession(row)
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+sessionFrom+` WHERE s.id = ?`, id)
	return scanSession(row)
}

func (r *SessionRepository) FindOverlappingTx(ctx context.Context, tx *sql.Tx, start, end time.Time) ([]model.Session, error) {
	rows, err := tx.QueryContext(
		ctx,
		`SELECT `+sessionColumns+sessionFrom+`
		 WHERE (s.status = ? AND s.start_time < ? AND s.end_time > ?)
		    OR (s.status IN (?, ?) AND s.start_time < ?)
		 ORDER BY s.start_time`,
		model.StatusCompleted, formatTime(end), formatTime(start),
		model.StatusActive, model.StatusPaused, formatTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("find overlapping sessions: %w", err)
	}
	return collectSessions(rows)
}

func (r *SessionRepository) ListInRange(ctx context.Context, from, to time.Time) ([]model.Session, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+sessionColumns+sessionFrom+`
		 WHERE s.start_time < ? AND (s.end_time IS NULL OR s.end_time > ?)
		 ORDER BY s.start_time, s.id`,
		formatTime(to),
		formatTime(from),
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collectSessions(rows)
}

func (r *SessionRepository) InsertTx(ctx context.Context, tx *sql.Tx, session *model.Session) error {
	history, err := json.Marshal(session.PauseHistory)
	if err != nil {
		return fmt.Errorf("encode pause history: %w", err)
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO sessions (
			id, activity_id, entry_type, status, start_time, end_time, last_heartbeat,
			pause_history, duration_seconds, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.ActivityID,
		session.EntryType,
		session.Status,
		formatTime(session.StartTime),
		nullableTime(session.EndTime),
		formatTime(session.LastHeartbeat),
		string(history),
		nullableInt(session.Duration),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) && session.Status.Open() {
			return ErrOpenSessionExists
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) UpdateTx(ctx context.Context, tx *sql.Tx, session *model.Session) error {
	history, err := json.Marshal(session.PauseHistory)
	if err != nil {
		return fmt.Errorf("encode pause history: %w", err)
	}

	result, err := tx.ExecContext(
		ctx,
		`UPDATE sessions
		 SET status = ?,
		     start_time = ?,
		     end_time = ?,
		     last_heartbeat = ?,
		     pause_history = ?,
		     duration_seconds = ?,
		     updated_at = ?
		 WHERE id = ?`,
		session.Status,
		formatTime(session.StartTime),
		nullableTime(session.EndTime),
		formatTime(session.LastHeartbeat),
		string(history),
		nullableInt(session.Duration),
		formatTime(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireAffected(result)
}

func (r *SessionRepository) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func collectSessions(rows *sql.Rows) ([]model.Session, error) {
	defer rows.Close()

	sessions := make([]model.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(s scanner) (*model.Session, error) {
	session := model.Session{}
	var (
		entryType     string
		status        string
		startTime     string
		endTime       sql.NullString
		lastHeartbeat string
		history       string
		duration      sql.NullInt64
		createdAt     string
		updatedAt     string
	)
	err := s.Scan(
		&session.ID,
		&session.ActivityID,
		&session.ActivityName,
		&entryType,
		&status,
		&startTime,
		&endTime,
		&lastHeartbeat,
		&history,
		&duration,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	session.EntryType = model.EntryType(entryType)
	if !session.EntryType.Valid() {
		return nil, fmt.Errorf("session %s: unknown entry type %q", session.ID, entryType)
	}
	session.Status = model.Status(status)
	if !session.Status.Valid() {
		return nil, fmt.Errorf("session %s: unknown status %q", session.ID, status)
	}

	if session.StartTime, err = parseTime(startTime); err != nil {
		return nil, fmt.Errorf("parse session start_time: %w", err)
	}
	if endTime.Valid {
		parsed, parseErr := parseTime(endTime.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse session end_time: %w", parseErr)
		}
		session.EndTime = &parsed
	}
	if session.LastHeartbeat, err = parseTime(lastHeartbeat); err != nil {
		return nil, fmt.Errorf("parse session last_heartbeat: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &session.PauseHistory); err != nil {
		return nil, fmt.Errorf("decode session pause_history: %w", err)
	}
	if duration.Valid {
		value := duration.Int64
		session.Duration = &value
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}

	return &session, nil
}
