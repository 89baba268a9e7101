package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"podium/internal/registry/metrics"
	"podium/internal/registry/models"
	id "podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/sentinel"
	"podium/pkg/requestcontext"
)

// Store is the transactional view handed to RunInTx callbacks. Writes made
// through it become visible to readers only when the callback returns nil.
type Store interface {
	FindAthlete(ctx context.Context, athleteID id.AthleteID) (*models.Athlete, error)
	FindAthleteIDByCaller(ctx context.Context, caller id.CallerID) (id.AthleteID, error)
	NextAthleteID(ctx context.Context) (id.AthleteID, error)
	CreateAthlete(ctx context.Context, athlete *models.Athlete) error
	UpdateAthlete(ctx context.Context, athlete *models.Athlete) error
	FindAchievement(ctx context.Context, key models.AchievementKey) (*models.Achievement, error)
	CreateAchievement(ctx context.Context, achievement *models.Achievement) error
	UpdateAchievement(ctx context.Context, achievement *models.Achievement) error
	AppendEvent(ctx context.Context, event *models.Event) error
	// CommitTime raises now to the latest timestamp already committed and
	// records the result as this transaction's time.
	CommitTime(now time.Time) time.Time
}

// Reader serves the read accessors from the latest committed state.
type Reader interface {
	FindAthlete(ctx context.Context, athleteID id.AthleteID) (*models.Athlete, error)
	FindAthleteIDByCaller(ctx context.Context, caller id.CallerID) (id.AthleteID, error)
	FindAchievement(ctx context.Context, key models.AchievementKey) (*models.Achievement, error)
	ListAchievements(ctx context.Context, athleteID id.AthleteID) ([]*models.Achievement, error)
	CountAthletes(ctx context.Context) (uint64, error)
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]*models.Event, error)
}

// RegistryTx is the single serialization point for mutations. Implementations
// must run at most one callback at a time and commit all of its writes or none.
type RegistryTx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// AthleteCache holds athlete snapshots for GetAthleteDetails. Get returns
// sentinel.ErrNotFound on a miss.
//
// Fills are fenced per athlete: the generation is read before the store load,
// and Set drops the snapshot if Invalidate has bumped the generation since.
type AthleteCache interface {
	Get(ctx context.Context, athleteID id.AthleteID) (*models.Athlete, error)
	Generation(ctx context.Context, athleteID id.AthleteID) (uint64, error)
	Set(ctx context.Context, athlete *models.Athlete, generation uint64) error
	Invalidate(ctx context.Context, athleteID id.AthleteID) error
}

const (
	opRegisterAthlete  = "register_athlete"
	opAddAchievement   = "add_achievement"
	opVerify           = "verify"
	opGetAthlete       = "get_athlete_details"
	opGetAchievement   = "get_achievement"
	opListAchievements = "list_achievements"
	opTotalAthletes    = "get_total_athletes"
	opMyAthleteID      = "get_my_athlete_id"
	opListEvents       = "list_events"

	// DefaultEventPageSize bounds ListEvents when the caller passes no limit.
	DefaultEventPageSize = 100
	// MaxEventPageSize caps ListEvents regardless of the requested limit.
	MaxEventPageSize = 1000
)

// Service is the athlete registry state machine. The owner is fixed at
// construction and is the only caller allowed to verify entries.
type Service struct {
	owner   id.CallerID
	reader  Reader
	tx      RegistryTx
	cache   AthleteCache
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCache(cache AthleteCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service. The owner must be a non-empty caller identity.
func New(owner id.CallerID, reader Reader, tx RegistryTx, opts ...Option) (*Service, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registry owner is required")
	}
	s := &Service{owner: owner, reader: reader, tx: tx}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("podium/registry")
	}
	return s, nil
}

// Owner returns the registry owner identity.
func (s *Service) Owner() id.CallerID {
	return s.owner
}

// RegisterAthlete creates the caller's athlete profile and returns its id.
func (s *Service) RegisterAthlete(ctx context.Context, caller id.CallerID, req *models.RegisterAthleteRequest, now time.Time) (athleteID id.AthleteID, err error) {
	ctx, span := s.startSpan(ctx, opRegisterAthlete, caller)
	start := time.Now()
	defer func() { s.finish(ctx, span, opRegisterAthlete, start, err) }()

	if caller.IsNil() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	if err := models.ValidateProfile(req.Name, req.Sport, req.Age); err != nil {
		return 0, err
	}

	var created *models.Athlete
	err = s.tx.RunInTx(ctx, func(store Store) error {
		existing, err := store.FindAthleteIDByCaller(ctx, caller)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up caller")
		}
		if !existing.IsNil() {
			return models.ErrCallerAlreadyRegistered
		}

		next, err := store.NextAthleteID(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate athlete id")
		}
		at := store.CommitTime(now)
		athlete, err := models.NewAthlete(next, caller, req.Name, req.Sport, req.Age, req.Country, at)
		if err != nil {
			return err
		}
		if err := store.CreateAthlete(ctx, athlete); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return models.ErrCallerAlreadyRegistered
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create athlete")
		}
		if err := store.AppendEvent(ctx, models.AthleteRegistered(athlete, at)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record notification")
		}
		created = athlete
		return nil
	})
	if err != nil {
		return 0, asDomainError(err, "failed to register athlete")
	}

	s.logAudit(ctx, string(models.EventAthleteRegistered),
		"athlete_id", created.ID.String(),
		"caller", caller.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementAthletesRegistered()
	}
	return created.ID, nil
}

// AddAchievement appends an achievement to an active athlete. The registry
// owner and the athlete's own caller may add.
func (s *Service) AddAchievement(ctx context.Context, caller id.CallerID, athleteID id.AthleteID, req *models.AddAchievementRequest, now time.Time) (achievementID id.AchievementID, err error) {
	ctx, span := s.startSpan(ctx, opAddAchievement, caller, attribute.Int64("athlete_id", int64(athleteID)))
	start := time.Now()
	defer func() { s.finish(ctx, span, opAddAchievement, start, err) }()

	var created *models.Achievement
	err = s.tx.RunInTx(ctx, func(store Store) error {
		athlete, err := findAthlete(ctx, store, athleteID)
		if err != nil {
			return err
		}
		if !s.isOwnerOrAthlete(caller, athlete) {
			return models.ErrUnauthorized
		}
		if !athlete.Active {
			return models.ErrAthleteInactive
		}

		at := store.CommitTime(now)
		achievement, err := models.NewAchievement(athlete.ID, athlete.NextAchievementID(), req.Title, req.Description, caller, at)
		if err != nil {
			return err
		}
		if err := store.CreateAchievement(ctx, achievement); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store achievement")
		}
		athlete.RecordAchievement()
		if err := store.UpdateAthlete(ctx, athlete); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update athlete")
		}
		if err := store.AppendEvent(ctx, models.AchievementAdded(achievement, at)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record notification")
		}
		created = achievement
		return nil
	})
	if err != nil {
		return 0, asDomainError(err, "failed to add achievement")
	}

	s.invalidate(ctx, athleteID)
	s.logAudit(ctx, string(models.EventAchievementAdded),
		"athlete_id", athleteID.String(),
		"achievement_id", created.ID.String(),
		"caller", caller.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementAchievementsAdded()
	}
	return created.ID, nil
}

// Verify marks the athlete (achievementID == 0) or one of its achievements as
// verified. Only the registry owner may verify; repeating a verification is
// accepted and leaves state unchanged.
//
// Only the athlete branch emits a notification, and it does so on every call.
func (s *Service) Verify(ctx context.Context, caller id.CallerID, athleteID id.AthleteID, achievementID id.AchievementID, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, opVerify, caller,
		attribute.Int64("athlete_id", int64(athleteID)),
		attribute.Int64("achievement_id", int64(achievementID)),
	)
	start := time.Now()
	defer func() { s.finish(ctx, span, opVerify, start, err) }()

	if !s.isOwner(caller) {
		return models.ErrUnauthorized
	}

	err = s.tx.RunInTx(ctx, func(store Store) error {
		athlete, err := findAthlete(ctx, store, athleteID)
		if err != nil {
			return err
		}
		if achievementID == id.AthleteItself {
			return verifyAthlete(ctx, store, athlete, store.CommitTime(now))
		}
		return verifyAchievement(ctx, store, athlete, achievementID)
	})
	if err != nil {
		return asDomainError(err, "failed to verify")
	}

	s.invalidate(ctx, athleteID)
	target := "achievement"
	if achievementID == id.AthleteItself {
		target = "athlete"
	}
	s.logAudit(ctx, "registry_verified",
		"athlete_id", athleteID.String(),
		"achievement_id", achievementID.String(),
		"target", target,
	)
	if s.metrics != nil {
		s.metrics.IncrementVerification(target)
	}
	return nil
}

func verifyAthlete(ctx context.Context, store Store, athlete *models.Athlete, now time.Time) error {
	if !athlete.Verified {
		athlete.MarkVerified()
		if err := store.UpdateAthlete(ctx, athlete); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update athlete")
		}
	}
	if err := store.AppendEvent(ctx, models.AthleteVerified(athlete, now)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record notification")
	}
	return nil
}

func verifyAchievement(ctx context.Context, store Store, athlete *models.Athlete, achievementID id.AchievementID) error {
	if !athlete.HasAchievement(achievementID) {
		return models.ErrAchievementNotFound
	}
	achievement, err := store.FindAchievement(ctx, models.AchievementKey{AthleteID: athlete.ID, AchievementID: achievementID})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrAchievementNotFound
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load achievement")
	}
	if achievement.Verified {
		return nil
	}
	achievement.MarkVerified()
	if err := store.UpdateAchievement(ctx, achievement); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update achievement")
	}
	return nil
}

// GetAthleteDetails returns a snapshot of the athlete, served from the cache
// when one is configured.
func (s *Service) GetAthleteDetails(ctx context.Context, athleteID id.AthleteID) (athlete *models.Athlete, err error) {
	ctx, span := s.startSpan(ctx, opGetAthlete, "", attribute.Int64("athlete_id", int64(athleteID)))
	start := time.Now()
	defer func() { s.finish(ctx, span, opGetAthlete, start, err) }()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, athleteID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.warn(ctx, "athlete cache read failed", "athlete_id", athleteID.String(), "error", err)
		}
	}

	generation, fill := s.cacheGeneration(ctx, athleteID)
	athlete, err = findAthlete(ctx, s.reader, athleteID)
	if err != nil {
		return nil, err
	}
	if fill {
		if err := s.cache.Set(ctx, athlete, generation); err != nil {
			s.warn(ctx, "athlete cache write failed", "athlete_id", athleteID.String(), "error", err)
		}
	}
	return athlete, nil
}

// GetAchievement returns a snapshot of one achievement.
func (s *Service) GetAchievement(ctx context.Context, athleteID id.AthleteID, achievementID id.AchievementID) (achievement *models.Achievement, err error) {
	ctx, span := s.startSpan(ctx, opGetAchievement, "",
		attribute.Int64("athlete_id", int64(athleteID)),
		attribute.Int64("achievement_id", int64(achievementID)),
	)
	start := time.Now()
	defer func() { s.finish(ctx, span, opGetAchievement, start, err) }()

	athlete, err := findAthlete(ctx, s.reader, athleteID)
	if err != nil {
		return nil, err
	}
	if !athlete.HasAchievement(achievementID) {
		return nil, models.ErrAchievementNotFound
	}
	achievement, err = s.reader.FindAchievement(ctx, models.AchievementKey{AthleteID: athleteID, AchievementID: achievementID})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrAchievementNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load achievement")
	}
	return achievement, nil
}

// ListAchievements returns the athlete's achievements ordered by id.
func (s *Service) ListAchievements(ctx context.Context, athleteID id.AthleteID) (achievements []*models.Achievement, err error) {
	ctx, span := s.startSpan(ctx, opListAchievements, "", attribute.Int64("athlete_id", int64(athleteID)))
	start := time.Now()
	defer func() { s.finish(ctx, span, opListAchievements, start, err) }()

	if _, err := findAthlete(ctx, s.reader, athleteID); err != nil {
		return nil, err
	}
	achievements, err = s.reader.ListAchievements(ctx, athleteID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list achievements")
	}
	return achievements, nil
}

// GetTotalAthletes returns the number of registered athletes.
func (s *Service) GetTotalAthletes(ctx context.Context) (total uint64, err error) {
	ctx, span := s.startSpan(ctx, opTotalAthletes, "")
	start := time.Now()
	defer func() { s.finish(ctx, span, opTotalAthletes, start, err) }()

	total, err = s.reader.CountAthletes(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count athletes")
	}
	return total, nil
}

// GetMyAthleteID returns the athlete registered by caller, or id.NoAthlete.
func (s *Service) GetMyAthleteID(ctx context.Context, caller id.CallerID) (athleteID id.AthleteID, err error) {
	ctx, span := s.startSpan(ctx, opMyAthleteID, caller)
	start := time.Now()
	defer func() { s.finish(ctx, span, opMyAthleteID, start, err) }()

	if caller.IsNil() {
		return id.NoAthlete, nil
	}
	athleteID, err = s.reader.FindAthleteIDByCaller(ctx, caller)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.NoAthlete, nil
		}
		return id.NoAthlete, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up caller")
	}
	return athleteID, nil
}

// ListEvents returns committed notifications with a sequence greater than
// afterSeq, in emission order.
func (s *Service) ListEvents(ctx context.Context, afterSeq uint64, limit int) (events []*models.Event, err error) {
	ctx, span := s.startSpan(ctx, opListEvents, "")
	start := time.Now()
	defer func() { s.finish(ctx, span, opListEvents, start, err) }()

	if limit <= 0 {
		limit = DefaultEventPageSize
	}
	if limit > MaxEventPageSize {
		limit = MaxEventPageSize
	}
	events, err = s.reader.ListEvents(ctx, afterSeq, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

type athleteFinder interface {
	FindAthlete(ctx context.Context, athleteID id.AthleteID) (*models.Athlete, error)
}

func findAthlete(ctx context.Context, finder athleteFinder, athleteID id.AthleteID) (*models.Athlete, error) {
	if athleteID.IsNil() {
		return nil, models.ErrAthleteNotFound
	}
	athlete, err := finder.FindAthlete(ctx, athleteID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrAthleteNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load athlete")
	}
	return athlete, nil
}

// asDomainError passes domain errors through and wraps anything else as an
// internal failure.
func asDomainError(err error, msg string) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// cacheGeneration reports whether a snapshot loaded after this call may be
// written back, and the generation to fence the write with.
func (s *Service) cacheGeneration(ctx context.Context, athleteID id.AthleteID) (uint64, bool) {
	if s.cache == nil {
		return 0, false
	}
	generation, err := s.cache.Generation(ctx, athleteID)
	if err != nil {
		s.warn(ctx, "athlete cache generation read failed", "athlete_id", athleteID.String(), "error", err)
		return 0, false
	}
	return generation, true
}

func (s *Service) invalidate(ctx context.Context, athleteID id.AthleteID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, athleteID); err != nil {
		s.warn(ctx, "athlete cache invalidation failed", "athlete_id", athleteID.String(), "error", err)
	}
}

func (s *Service) startSpan(ctx context.Context, operation string, caller id.CallerID, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !caller.IsNil() {
		attrs = append(attrs, attribute.String("caller", caller.String()))
	}
	return s.tracer.Start(ctx, "registry."+operation, trace.WithAttributes(attrs...))
}

// finish ends the span and records duration and rejection metrics.
func (s *Service) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if s.metrics != nil {
			s.metrics.IncrementRejection(operation, dErrors.KindOf(err))
		}
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			s.logError(ctx, "registry operation failed", "operation", operation, "error", err)
		}
	}
	span.End()
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if tokenID := requestcontext.TokenID(ctx); tokenID != "" {
		attributes = append(attributes, "token_id", tokenID)
	}
	if userAgent := requestcontext.UserAgent(ctx); userAgent != "" {
		attributes = append(attributes, "user_agent", userAgent)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) warn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, args...)
	}
}

func (s *Service) logError(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.ErrorContext(ctx, msg, args...)
	}
}
