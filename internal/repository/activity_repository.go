package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"timelog/internal/model"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *model.Activity) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO activities (id, name, color, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		activity.ID,
		activity.Name,
		activity.Color,
		formatTime(activity.CreatedAt),
		formatTime(activity.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*model.Activity, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, name, color, created_at, updated_at FROM activities WHERE id = ?`,
		id,
	)
	return scanActivity(row)
}

func (r *ActivityRepository) GetTx(ctx context.Context, tx *sql.Tx, id string) (*model.Activity, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT id, name, color, created_at, updated_at FROM activities WHERE id = ?`,
		id,
	)
	return scanActivity(row)
}

func (r *ActivityRepository) GetByName(ctx context.Context, name string) (*model.Activity, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, name, color, created_at, updated_at FROM activities WHERE name = ?`,
		name,
	)
	return scanActivity(row)
}

func (r *ActivityRepository) List(ctx context.Context) ([]model.Activity, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, name, color, created_at, updated_at FROM activities ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]model.Activity, 0)
	for rows.Next() {
		activity, scanErr := scanActivity(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		activities = append(activities, *activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, nil
}

func (r *ActivityRepository) Update(ctx context.Context, activity *model.Activity) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE activities SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		activity.Name,
		activity.Color,
		formatTime(activity.UpdatedAt),
		activity.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("update activity: %w", err)
	}
	return requireAffected(result)
}

func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return requireAffected(result)
}

func scanActivity(s scanner) (*model.Activity, error) {
	var activity model.Activity
	var createdAt string
	var updatedAt string
	if err := s.Scan(&activity.ID, &activity.Name, &activity.Color, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan activity: %w", err)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse activity created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse activity updated_at: %w", err)
	}
	activity.CreatedAt = parsedCreatedAt
	activity.UpdatedAt = parsedUpdatedAt

	return &activity, nil
}
