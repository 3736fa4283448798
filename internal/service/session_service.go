package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "timelog/internal/errors"
	"timelog/internal/metrics"
	"timelog/internal/model"
	"timelog/internal/recovery"
	"timelog/internal/repository"
	"timelog/internal/timer"
	"timelog/internal/validate"
)

type SessionService struct {
	sessions   SessionStore
	activities ActivityLookup
	recovery   *recovery.Engine
	manual     *validate.ManualEntryValidator
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*SessionService)

func WithClock(now func() time.Time) Option {
	return func(s *SessionService) {
		s.now = now
	}
}

func NewSessionService(
	sessions SessionStore,
	activities ActivityLookup,
	engine *recovery.Engine,
	manual *validate.ManualEntryValidator,
	logger *slog.Logger,
	opts ...Option,
) *SessionService {
	s := &SessionService{
		sessions:   sessions,
		activities: activities,
		recovery:   engine,
		manual:     manual,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ManualEntryInput struct {
	ActivityID string
	StartTime  string
	EndTime    string
}

type StartTimerInput struct {
	ActivityID string
	StartTime  *time.Time
}

type RecoveryView struct {
	Session    *model.Session   `json:"session"`
	Outcome    recovery.Outcome `json:"outcome"`
	GapSeconds int64            `json:"gapSeconds"`
}

func (s *SessionService) CreateManualEntry(ctx context.Context, input ManualEntryInput) (*model.Session, *apperrors.APIError) {
	session, apiErr := s.createManualEntry(ctx, input)
	if apiErr != nil {
		metrics.RecordManualEntry(resultFor(apiErr))
		return nil, apiErr
	}
	metrics.RecordManualEntry(metrics.ResultOK)
	return session, nil
}

func (s *SessionService) createManualEntry(ctx context.Context, input ManualEntryInput) (*model.Session, *apperrors.APIError) {
	activityID := strings.TrimSpace(input.ActivityID)
	if activityID == "" {
		return nil, apperrors.Validation("missing_field", "activityId is required", "activityId")
	}

	now := s.clock()
	start, end, err := s.manual.Validate(input.StartTime, input.EndTime, now)
	if err != nil {
		return nil, validationError(err)
	}

	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return nil, s.internal("create_manual_entry", "", err, "failed to start transaction")
	}
	defer tx.Rollback()

	activity, apiErr := s.activityTx(ctx, tx, activityID)
	if apiErr != nil {
		return nil, apiErr
	}

	if apiErr := s.checkOverlap(ctx, tx, start, end); apiErr != nil {
		return nil, apiErr
	}

	session := timer.Manual(uuid.NewString(), activity.ID, start, end, now)
	if err := s.sessions.InsertTx(ctx, tx, &session); err != nil {
		return nil, s.internal("create_manual_entry", session.ID, err, "failed to create entry")
	}
	if err := tx.Commit(); err != nil {
		return nil, s.internal("create_manual_entry", session.ID, err, "failed to commit transaction")
	}

	session.ActivityName = activity.Name
	return &session, nil
}

func (s *SessionService) StartTimer(ctx context.Context, input StartTimerInput) (*model.Session, *apperrors.APIError) {
	session, apiErr := s.startTimer(ctx, input)
	s.record("start", apiErr)
	return session, apiErr
}

func (s *SessionService) startTimer(ctx context.Context, input StartTimerInput) (*model.Session, *apperrors.APIError) {
	activityID := strings.TrimSpace(input.ActivityID)
	if activityID == "" {
		return nil, apperrors.Validation("missing_field", "activityId is required", "activityId")
	}

	now := s.clock()
	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return nil, s.internal("start", "", err, "failed to start transaction")
	}
	defer tx.Rollback()

	activity, apiErr := s.activityTx(ctx, tx, activityID)
	if apiErr != nil {
		return nil, apiErr
	}

	open, err := s.sessions.FindOpenTx(ctx, tx)
	if err == nil {
		return nil, runningConflict(open, s.manual.Bounds().Location)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.internal("start", "", err, "failed to check running timer")
	}

	var startTime time.Time
	if input.StartTime != nil {
		startTime = input.StartTime.UTC()
	}
	session, err := timer.Start(uuid.NewString(), activity.ID, startTime, now)
	if err != nil {
		return nil, transitionError(err)
	}

	if session.StartTime.Before(now) {
		if apiErr := s.checkOverlap(ctx, tx, session.StartTime, now); apiErr != nil {
			return nil, apiErr
		}
	}

	if err := s.sessions.InsertTx(ctx, tx, &session); err != nil {
		if errors.Is(err, repository.ErrOpenSessionExists) {
			return nil, apperrors.Conflict("timer_already_running", "a timer is already running", nil)
		}
		return nil, s.internal("start", session.ID, err, "failed to create timer")
	}
	if err := tx.Commit(); err != nil {
		return nil, s.internal("start", session.ID, err, "failed to commit transaction")
	}

	session.ActivityName = activity.Name
	return &session, nil
}

func (s *SessionService) PauseTimer(ctx context.Context, id string) (*model.Session, *apperrors.APIError) {
	return s.transition(ctx, "pause", id, timer.Pause)
}

func (s *SessionService) ResumeTimer(ctx context.Context, id string) (*model.Session, *apperrors.APIError) {
	return s.transition(ctx, "resume", id, timer.Resume)
}

func (s *SessionService) Heartbeat(ctx context.Context, id string) (*model.Session, *apperrors.APIError) {
	return s.transition(ctx, "heartbeat", id, timer.Heartbeat)
}

func (s *SessionService) StopTimer(ctx context.Context, id string, endTime *time.Time) (*model.Session, *apperrors.APIError) {
	var end time.Time
	if endTime != nil {
		end = endTime.UTC()
	}
	return s.transition(ctx, "stop", id, func(session model.Session, now time.Time) (model.Session, error) {
		return timer.Stop(session, end, now)
	})
}

func (s *SessionService) DiscardTimer(ctx context.Context, id string) *apperrors.APIError {
	apiErr := s.discardTimer(ctx, id)
	s.record("discard", apiErr)
	return apiErr
}

func (s *SessionService) discardTimer(ctx context.Context, id string) *apperrors.APIError {
	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return s.internal("discard", id, err, "failed to start transaction")
	}
	defer tx.Rollback()

	session, apiErr := s.sessionTx(ctx, tx, id)
	if apiErr != nil {
		return apiErr
	}
	if err := timer.CanDiscard(*session); err != nil {
		return transitionError(err)
	}

	if err := s.sessions.DeleteTx(ctx, tx, id); err != nil {
		return s.internal("discard", id, err, "failed to discard timer")
	}
	if err := tx.Commit(); err != nil {
		return s.internal("discard", id, err, "failed to commit transaction")
	}
	return nil
}

func (s *SessionService) RecoverSession(ctx context.Context, id string) (*RecoveryView, *apperrors.APIError) {
	view, apiErr := s.recoverSession(ctx, id)
	s.record("recover", apiErr)
	return view, apiErr
}

func (s *SessionService) recoverSession(ctx context.Context, id string) (*RecoveryView, *apperrors.APIError) {
	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return nil, s.internal("recover", id, err, "failed to start transaction")
	}
	defer tx.Rollback()

	session, apiErr := s.sessionTx(ctx, tx, id)
	if apiErr != nil {
		return nil, apiErr
	}

	result, apiErr := s.applyRecovery(ctx, tx, *session)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := tx.Commit(); err != nil {
		return nil, s.internal("recover", id, err, "failed to commit transaction")
	}

	return &RecoveryView{
		Session:    &result.Session,
		Outcome:    result.Outcome,
		GapSeconds: int64(result.Gap / time.Second),
	}, nil
}

func (s *SessionService) Reap(ctx context.Context) error {
	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin reap: %w", err)
	}
	defer tx.Rollback()

	open, err := s.sessions.FindOpenTx(ctx, tx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find open session: %w", err)
	}

	result, apiErr := s.applyRecovery(ctx, tx, *open)
	if apiErr != nil {
		return apiErr
	}
	if result.Outcome == recovery.OutcomeDiscardable {
		if err := s.sessions.DeleteTx(ctx, tx, open.ID); err != nil {
			return fmt.Errorf("discard abandoned session: %w", err)
		}
		s.logger.Info("discarded abandoned session",
			slog.String("session_id", open.ID),
			slog.Duration("gap", result.Gap),
		)
	}
	return tx.Commit()
}

func (s *SessionService) applyRecovery(ctx context.Context, tx *sql.Tx, session model.Session) (recovery.Result, *apperrors.APIError) {
	result, err := s.recovery.Recover(session, s.clock())
	if errors.Is(err, timer.ErrNotTimer) {
		return result, transitionError(err)
	}
	if err != nil {
		return result, s.internal("recover", session.ID, err, "failed to recover session")
	}
	metrics.RecordRecovery(string(result.Outcome))

	if result.Changed() {
		if err := s.sessions.UpdateTx(ctx, tx, &result.Session); err != nil {
			return result, s.internal("recover", session.ID, err, "failed to update session")
		}
	}
	if result.Outcome != recovery.OutcomeRefreshed && result.Outcome != recovery.OutcomeSkipped {
		s.logger.Info("recovered session",
			slog.String("session_id", session.ID),
			slog.String("outcome", string(result.Outcome)),
			slog.Duration("gap", result.Gap),
		)
	}
	return result, nil
}

func (s *SessionService) DeleteSession(ctx context.Context, id string) *apperrors.APIError {
	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return s.internal("delete", id, err, "failed to start transaction")
	}
	defer tx.Rollback()

	err = s.sessions.DeleteTx(ctx, tx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return sessionNotFound()
	}
	if err != nil {
		return s.internal("delete", id, err, "failed to delete session")
	}
	if err := tx.Commit(); err != nil {
		return s.internal("delete", id, err, "failed to commit transaction")
	}
	return nil
}

func (s *SessionService) CurrentTimer(ctx context.Context) (*model.Session, *apperrors.APIError) {
	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return nil, s.internal("current", "", err, "failed to start transaction")
	}
	defer tx.Rollback()

	open, err := s.sessions.FindOpenTx(ctx, tx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.internal("current", "", err, "failed to get running timer")
	}
	return open, nil
}

func (s *SessionService) ListSessionsInRange(ctx context.Context, from, to time.Time) ([]model.Session, *apperrors.APIError) {
	if !from.Before(to) {
		return []model.Session{}, nil
	}
	sessions, err := s.sessions.ListInRange(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, s.internal("list", "", err, "failed to list sessions")
	}
	return sessions, nil
}

type transitionFunc func(session model.Session, now time.Time) (model.Session, error)

func (s *SessionService) transition(ctx context.Context, op, id string, fn transitionFunc) (*model.Session, *apperrors.APIError) {
	session, apiErr := s.applyTransition(ctx, op, id, fn)
	s.record(op, apiErr)
	return session, apiErr
}

func (s *SessionService) applyTransition(ctx context.Context, op, id string, fn transitionFunc) (*model.Session, *apperrors.APIError) {
	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return nil, s.internal(op, id, err, "failed to start transaction")
	}
	defer tx.Rollback()

	current, apiErr := s.sessionTx(ctx, tx, id)
	if apiErr != nil {
		return nil, apiErr
	}

	next, err := fn(*current, s.clock())
	if err != nil {
		return nil, transitionError(err)
	}

	if err := s.sessions.UpdateTx(ctx, tx, &next); err != nil {
		return nil, s.internal(op, id, err, "failed to update session")
	}
	if err := tx.Commit(); err != nil {
		return nil, s.internal(op, id, err, "failed to commit transaction")
	}
	return &next, nil
}

func (s *SessionService) checkOverlap(ctx context.Context, tx *sql.Tx, start, end time.Time) *apperrors.APIError {
	candidates, err := s.sessions.FindOverlappingTx(ctx, tx, start, end)
	if err != nil {
		return s.internal("overlap", "", err, "failed to check overlapping entries")
	}

	err = validate.Overlap(start, end, candidates, s.manual.Bounds().Location)
	var conflict *validate.ConflictError
	if errors.As(err, &conflict) {
		return apperrors.Conflict("entry_overlap", conflict.Error(), map[string]interface{}{
			"sessionId":    conflict.Existing.ID,
			"activityId":   conflict.Existing.ActivityID,
			"activityName": conflict.Existing.ActivityName,
			"startTime":    conflict.Existing.StartTime,
			"endTime":      conflict.Existing.EndTime,
		})
	}
	return nil
}

func (s *SessionService) sessionTx(ctx context.Context, tx *sql.Tx, id string) (*model.Session, *apperrors.APIError) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("missing_field", "session id is required", "id")
	}
	session, err := s.sessions.GetTx(ctx, tx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, sessionNotFound()
	}
	if err != nil {
		return nil, s.internal("get", id, err, "failed to get session")
	}
	return session, nil
}

func (s *SessionService) activityTx(ctx context.Context, tx *sql.Tx, id string) (*model.Activity, *apperrors.APIError) {
	activity, err := s.activities.GetTx(ctx, tx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, activityNotFound()
	}
	if err != nil {
		return nil, s.internal("get_activity", "", err, "failed to get activity")
	}
	return activity, nil
}

func (s *SessionService) clock() time.Time {
	return s.now().UTC()
}

func (s *SessionService) internal(op, sessionID string, err error, message string) *apperrors.APIError {
	s.logger.Error("session store failure",
		slog.String("op", op),
		slog.String("session_id", sessionID),
		slog.Any("error", err),
	)
	return apperrors.Internal(message)
}

func (s *SessionService) record(op string, apiErr *apperrors.APIError) {
	metrics.RecordTransition(op, resultFor(apiErr))
}

func resultFor(apiErr *apperrors.APIError) string {
	switch {
	case apiErr == nil:
		return metrics.ResultOK
	case apiErr.Code == "internal_error":
		return metrics.ResultError
	default:
		return metrics.ResultRejected
	}
}

func runningConflict(open *model.Session, loc *time.Location) *apperrors.APIError {
	name := open.ActivityName
	if name == "" {
		name = open.ActivityID
	}
	message := fmt.Sprintf("a timer for %q is already running, started at %s",
		name, open.StartTime.In(loc).Format("2006-01-02 15:04"))
	return apperrors.Conflict("timer_already_running", message, map[string]interface{}{
		"session": open,
	})
}

func sessionNotFound() *apperrors.APIError {
	return apperrors.NotFound("session_not_found", "session not found")
}

func activityNotFound() *apperrors.APIError {
	return apperrors.NotFound("activity_not_found", "activity not found")
}

func validationError(err error) *apperrors.APIError {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return apperrors.Validation(verr.Code, verr.Message, verr.Field)
	}
	return apperrors.BadRequest("invalid_request", err.Error())
}

func transitionError(err error) *apperrors.APIError {
	switch {
	case errors.Is(err, timer.ErrNotTimer):
		return apperrors.State("not_a_timer", "only timer sessions support this operation")
	case errors.Is(err, timer.ErrAlreadyCompleted):
		return apperrors.State("already_completed", err.Error())
	case errors.Is(err, timer.ErrAlreadyPaused):
		return apperrors.State("already_paused", err.Error())
	case errors.Is(err, timer.ErrNotPaused):
		return apperrors.State("already_active", err.Error())
	case errors.Is(err, timer.ErrAlreadyResumed):
		return apperrors.State("already_resumed", err.Error())
	case errors.Is(err, timer.ErrNoPauseToResume):
		return apperrors.State("no_pause_to_resume", err.Error())
	case errors.Is(err, timer.ErrPaused):
		return apperrors.State("session_paused", err.Error())
	case errors.Is(err, model.ErrResumeBeforePause), errors.Is(err, model.ErrPauseOutOfOrder):
		return apperrors.State("out_of_order", err.Error())
	case errors.Is(err, timer.ErrStartInFuture):
		return apperrors.Validation("future_time", err.Error(), "startTime")
	case errors.Is(err, timer.ErrEndInFuture):
		return apperrors.Validation("future_time", err.Error(), "endTime")
	case errors.Is(err, timer.ErrEndBeforeStart), errors.Is(err, timer.ErrEndBeforeBoundary):
		return apperrors.Validation("invalid_range", err.Error(), "endTime")
	default:
		return apperrors.Internal("failed to apply transition")
	}
}
