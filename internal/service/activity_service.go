package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "timelog/internal/errors"
	"timelog/internal/model"
	"timelog/internal/repository"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type ActivityService struct {
	repo   *repository.ActivityRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewActivityService(repo *repository.ActivityRepository, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

type ActivityInput struct {
	Name  string
	Color string
}

func (s *ActivityService) Create(ctx context.Context, input ActivityInput) (*model.Activity, *apperrors.APIError) {
	name, color, apiErr := normalizeActivity(input)
	if apiErr != nil {
		return nil, apiErr
	}

	now := s.now().UTC()
	activity := model.Activity{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &activity); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, nameTaken(name)
		}
		return nil, s.internal("create", err, "failed to create activity")
	}
	return &activity, nil
}

func (s *ActivityService) Get(ctx context.Context, id string) (*model.Activity, *apperrors.APIError) {
	activity, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, activityNotFound()
	}
	if err != nil {
		return nil, s.internal("get", err, "failed to get activity")
	}
	return activity, nil
}

func (s *ActivityService) Resolve(ctx context.Context, ref string) (*model.Activity, *apperrors.APIError) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperrors.Validation("missing_field", "activity is required", "activity")
	}

	activity, err := s.repo.GetByID(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		activity, err = s.repo.GetByName(ctx, ref)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, activityNotFound()
	}
	if err != nil {
		return nil, s.internal("resolve", err, "failed to get activity")
	}
	return activity, nil
}

func (s *ActivityService) List(ctx context.Context) ([]model.Activity, *apperrors.APIError) {
	activities, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.internal("list", err, "failed to list activities")
	}
	return activities, nil
}

func (s *ActivityService) Update(ctx context.Context, id string, input ActivityInput) (*model.Activity, *apperrors.APIError) {
	name, color, apiErr := normalizeActivity(input)
	if apiErr != nil {
		return nil, apiErr
	}

	activity, apiErr := s.Get(ctx, id)
	if apiErr != nil {
		return nil, apiErr
	}
	activity.Name = name
	activity.Color = color
	activity.UpdatedAt = s.now().UTC()

	err := s.repo.Update(ctx, activity)
	switch {
	case errors.Is(err, repository.ErrDuplicateName):
		return nil, nameTaken(name)
	case errors.Is(err, repository.ErrNotFound):
		return nil, activityNotFound()
	case err != nil:
		return nil, s.internal("update", err, "failed to update activity")
	}
	return activity, nil
}

func (s *ActivityService) Delete(ctx context.Context, id string) *apperrors.APIError {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return activityNotFound()
	}
	if err != nil {
		return s.internal("delete", err, "failed to delete activity")
	}
	return nil
}

func (s *ActivityService) internal(op string, err error, message string) *apperrors.APIError {
	s.logger.Error("activity store failure", slog.String("op", op), slog.Any("error", err))
	return apperrors.Internal(message)
}

func normalizeActivity(input ActivityInput) (string, string, *apperrors.APIError) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", "", apperrors.Validation("invalid_name", "name is required", "name")
	}
	if utf8.RuneCountInString(name) > model.MaxActivityNameLength {
		return "", "", apperrors.Validation("invalid_name", "name must be at most 64 characters", "name")
	}

	color := strings.TrimSpace(input.Color)
	if color != "" && !colorPattern.MatchString(color) {
		return "", "", apperrors.Validation("invalid_color", "color must look like #RRGGBB", "color")
	}
	return name, strings.ToUpper(color), nil
}

func nameTaken(name string) *apperrors.APIError {
	return apperrors.Conflict("activity_name_taken", "an activity named \""+name+"\" already exists", nil)
}
