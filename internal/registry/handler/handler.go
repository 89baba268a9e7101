package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"podium/internal/registry/models"
	id "podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/httputil"
	"podium/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	RegisterAthlete(ctx context.Context, caller id.CallerID, req *models.RegisterAthleteRequest, now time.Time) (id.AthleteID, error)
	AddAchievement(ctx context.Context, caller id.CallerID, athleteID id.AthleteID, req *models.AddAchievementRequest, now time.Time) (id.AchievementID, error)
	Verify(ctx context.Context, caller id.CallerID, athleteID id.AthleteID, achievementID id.AchievementID, now time.Time) error
	GetAthleteDetails(ctx context.Context, athleteID id.AthleteID) (*models.Athlete, error)
	GetAchievement(ctx context.Context, athleteID id.AthleteID, achievementID id.AchievementID) (*models.Achievement, error)
	ListAchievements(ctx context.Context, athleteID id.AthleteID) ([]*models.Achievement, error)
	GetTotalAthletes(ctx context.Context) (uint64, error)
	GetMyAthleteID(ctx context.Context, caller id.CallerID) (id.AthleteID, error)
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]*models.Event, error)
	Owner() id.CallerID
}

// Handler serves the registry API under /v1.
type Handler struct {
	registry      Service
	logger        *slog.Logger
	requireCaller func(http.Handler) http.Handler
}

// New creates a registry Handler. requireCaller authenticates the mutating
// and caller-scoped routes.
func New(registry Service, logger *slog.Logger, requireCaller func(http.Handler) http.Handler) *Handler {
	return &Handler{
		registry:      registry,
		logger:        logger,
		requireCaller: requireCaller,
	}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/registry", h.handleRegistryInfo)
		r.Get("/events", h.handleListEvents)
		r.Get("/athletes/count", h.handleTotalAthletes)
		r.Get("/athletes/{athleteID}", h.handleGetAthlete)
		r.Get("/athletes/{athleteID}/achievements", h.handleListAchievements)
		r.Get("/athletes/{athleteID}/achievements/{achievementID}", h.handleGetAchievement)

		r.Group(func(r chi.Router) {
			r.Use(h.requireCaller)
			r.Post("/athletes", h.handleRegisterAthlete)
			r.Get("/athletes/me", h.handleMyAthleteID)
			r.Post("/athletes/{athleteID}/achievements", h.handleAddAchievement)
			r.Post("/athletes/{athleteID}/verify", h.handleVerify)
		})
	})
}

func (h *Handler) handleRegisterAthlete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndValidate[models.RegisterAthleteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	athleteID, err := h.registry.RegisterAthlete(ctx, caller, req, requestcontext.Now(ctx))
	if err != nil {
		h.writeError(ctx, w, "register athlete", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.AthleteIDResponse{AthleteID: athleteID})
}

func (h *Handler) handleMyAthleteID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	athleteID, err := h.registry.GetMyAthleteID(ctx, caller)
	if err != nil {
		h.writeError(ctx, w, "get my athlete id", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.AthleteIDResponse{AthleteID: athleteID})
}

func (h *Handler) handleAddAchievement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	athleteID, ok := h.athleteID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndValidate[models.AddAchievementRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	achievementID, err := h.registry.AddAchievement(ctx, caller, athleteID, req, requestcontext.Now(ctx))
	if err != nil {
		h.writeError(ctx, w, "add achievement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.AchievementIDResponse{AchievementID: achievementID})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	athleteID, ok := h.athleteID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeJSON[models.VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.registry.Verify(ctx, caller, athleteID, req.AchievementID, requestcontext.Now(ctx)); err != nil {
		h.writeError(ctx, w, "verify", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetAthlete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	athleteID, ok := h.athleteID(w, r)
	if !ok {
		return
	}

	athlete, err := h.registry.GetAthleteDetails(ctx, athleteID)
	if err != nil {
		h.writeError(ctx, w, "get athlete", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, athlete)
}

func (h *Handler) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	athleteID, ok := h.athleteID(w, r)
	if !ok {
		return
	}

	achievements, err := h.registry.ListAchievements(ctx, athleteID)
	if err != nil {
		h.writeError(ctx, w, "list achievements", err)
		return
	}
	if achievements == nil {
		achievements = []*models.Achievement{}
	}
	httputil.WriteJSON(w, http.StatusOK, models.AchievementListResponse{Achievements: achievements})
}

func (h *Handler) handleGetAchievement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	athleteID, ok := h.athleteID(w, r)
	if !ok {
		return
	}
	achievementID, err := id.ParseAchievementID(chi.URLParam(r, "achievementID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	achievement, err := h.registry.GetAchievement(ctx, athleteID, achievementID)
	if err != nil {
		h.writeError(ctx, w, "get achievement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, achievement)
}

func (h *Handler) handleTotalAthletes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.registry.GetTotalAthletes(ctx)
	if err != nil {
		h.writeError(ctx, w, "count athletes", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.TotalResponse{Total: total})
}

func (h *Handler) handleRegistryInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.registry.GetTotalAthletes(ctx)
	if err != nil {
		h.writeError(ctx, w, "registry info", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.RegistryInfoResponse{
		Owner:         h.registry.Owner(),
		TotalAthletes: total,
	})
}

// handleListEvents pages through notifications: ?after=<seq>&limit=<n>.
// next_after is the cursor for the following page.
func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var after uint64
	if raw := query.Get("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "after must be a non-negative integer"))
			return
		}
		after = parsed
	}
	var limit int
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	events, err := h.registry.ListEvents(ctx, after, limit)
	if err != nil {
		h.writeError(ctx, w, "list events", err)
		return
	}
	next := after
	if len(events) > 0 {
		next = events[len(events)-1].Seq
	}
	if events == nil {
		events = []*models.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, models.EventListResponse{Events: events, NextSeq: next})
}

// caller returns the authenticated caller. The auth middleware guarantees one
// on caller routes; a missing caller is answered with 401.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.CallerID, bool) {
	caller := requestcontext.Caller(r.Context())
	if caller.IsNil() {
		h.logger.ErrorContext(r.Context(), "caller missing from context on authenticated route",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required"))
		return "", false
	}
	return caller, true
}

func (h *Handler) athleteID(w http.ResponseWriter, r *http.Request) (id.AthleteID, bool) {
	athleteID, err := id.ParseAthleteID(chi.URLParam(r, "athleteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return athleteID, true
}

// writeError logs and writes a service error. Rejections are expected traffic
// and logged at warn; anything else is an internal failure.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.HasCode(err, dErrors.CodeInternal) || !isDomainError(err) {
		h.logger.ErrorContext(ctx, "failed to "+operation,
			"request_id", requestID,
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, operation+" rejected",
			"request_id", requestID,
			"error_kind", models.KindOf(err),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func isDomainError(err error) bool {
	var domainErr *dErrors.Error
	return errors.As(err, &domainErr)
}
