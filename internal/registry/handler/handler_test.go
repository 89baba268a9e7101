package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"podium/internal/registry/handler/mocks"
	"podium/internal/registry/models"
	id "podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/registry-mocks.go -package=mocks Service

type RegistryHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	now     time.Time
}

func TestRegistryHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistryHandlerSuite))
}

func passthrough(next http.Handler) http.Handler { return next }

func (s *RegistryHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), passthrough)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *RegistryHandlerSuite) TestRegisterAthlete() {
	s.Run("created", func() {
		s.service.EXPECT().RegisterAthlete(gomock.Any(), id.CallerID("alice"), &models.RegisterAthleteRequest{
			Name: "Alice", Sport: "Running", Age: 30, Country: "Kenya",
		}, s.now).Return(id.AthleteID(1), nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/athletes", map[string]any{
			"name": "Alice", "sport": "Running", "age": 30, "country": "Kenya",
		})
		rr := testutil.DoRequest(s.router, testutil.WithRequestTime(testutil.WithCaller(req, "alice"), s.now))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[models.AthleteIDResponse](s.T(), rr)
		s.Equal(id.AthleteID(1), resp.AthleteID)
	})

	s.Run("conflict", func() {
		s.service.EXPECT().RegisterAthlete(gomock.Any(), id.CallerID("alice"), gomock.Any(), gomock.Any()).
			Return(id.AthleteID(0), models.ErrCallerAlreadyRegistered)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/athletes", map[string]any{"name": "Alice", "sport": "Running", "age": 30})
		rr := testutil.DoRequest(s.router, testutil.WithCaller(req, "alice"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("validation kind is reported", func() {
		s.service.EXPECT().RegisterAthlete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(id.AthleteID(0), models.ErrInvalidAge)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/athletes", map[string]any{"name": "Alice", "sport": "Running", "age": 100})
		rr := testutil.DoRequest(s.router, testutil.WithCaller(req, "alice"))

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("validation_error", body["error"])
		s.Equal("invalid_age", body["error_kind"])
	})

	s.Run("oversized name never reaches the registry", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/athletes", map[string]any{
			"name": strings.Repeat("x", 129), "sport": "Running", "age": 30,
		})
		rr := testutil.DoRequest(s.router, testutil.WithCaller(req, "alice"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unknown fields are rejected", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/v1/athletes", `{"name":"Alice","sport":"Running","age":30,"verified":true}`)
		rr := testutil.DoRequest(s.router, testutil.WithCaller(req, "alice"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("missing caller", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/athletes", map[string]any{"name": "Alice", "sport": "Running", "age": 30})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *RegistryHandlerSuite) TestMyAthleteID() {
	s.service.EXPECT().GetMyAthleteID(gomock.Any(), id.CallerID("stranger")).Return(id.NoAthlete, nil)

	rr := testutil.DoRequest(s.router, testutil.WithCaller(testutil.NewRequest(s.T(), http.MethodGet, "/v1/athletes/me"), "stranger"))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "athlete_id", float64(0))
}

func (s *RegistryHandlerSuite) TestAddAchievement() {
	s.Run("created", func() {
		s.service.EXPECT().AddAchievement(gomock.Any(), id.CallerID("alice"), id.AthleteID(1), &models.AddAchievementRequest{
			Title: "5k PB", Description: "sub-15min",
		}, s.now).Return(id.AchievementID(1), nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/athletes/1/achievements", map[string]any{"title": "5k PB", "description": "sub-15min"})
		rr := testutil.DoRequest(s.router, testutil.WithRequestTime(testutil.WithCaller(req, "alice"), s.now))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "achievement_id", float64(1))
	})

	s.Run("forbidden", func() {
		s.service.EXPECT().AddAchievement(gomock.Any(), id.CallerID("mallory"), id.AthleteID(1), gomock.Any(), gomock.Any()).
			Return(id.AchievementID(0), models.ErrUnauthorized)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/athletes/1/achievements", map[string]any{"title": "fake"})
		rr := testutil.DoRequest(s.router, testutil.WithCaller(req, "mallory"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("malformed athlete id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/athletes/abc/achievements", map[string]any{"title": "x"})
		rr := testutil.DoRequest(s.router, testutil.WithCaller(req, "alice"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *RegistryHandlerSuite) TestVerify() {
	s.Run("athlete itself", func() {
		s.service.EXPECT().Verify(gomock.Any(), id.CallerID("registry-owner"), id.AthleteID(1), id.AthleteItself, s.now).Return(nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/athletes/1/verify", map[string]any{"achievement_id": 0})
		rr := testutil.DoRequest(s.router, testutil.WithRequestTime(testutil.WithCaller(req, "registry-owner"), s.now))

		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("achievement not found", func() {
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any(), id.AthleteID(1), id.AchievementID(9), gomock.Any()).Return(models.ErrAchievementNotFound)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/athletes/1/verify", map[string]any{"achievement_id": 9})
		rr := testutil.DoRequest(s.router, testutil.WithCaller(req, "registry-owner"))

		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
		s.Equal("achievement_not_found", testutil.UnmarshalErrorResponse(s.T(), rr)["error_kind"])
	})
}

func (s *RegistryHandlerSuite) TestGetAthlete() {
	s.Run("found", func() {
		s.service.EXPECT().GetAthleteDetails(gomock.Any(), id.AthleteID(1)).Return(&models.Athlete{
			ID: 1, Name: "Alice", Sport: "Running", Age: 30, Verified: true, Active: true, Owner: "alice", RegisteredAt: s.now,
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/athletes/1"))

		testutil.AssertStatusOK(s.T(), rr)
		athlete := testutil.UnmarshalResponse[models.Athlete](s.T(), rr)
		s.Equal("Alice", athlete.Name)
		s.True(athlete.Verified)
	})

	s.Run("not found", func() {
		s.service.EXPECT().GetAthleteDetails(gomock.Any(), id.AthleteID(2)).Return(nil, models.ErrAthleteNotFound)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/athletes/2"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("internal errors hide their message", func() {
		s.service.EXPECT().GetAthleteDetails(gomock.Any(), id.AthleteID(3)).
			Return(nil, dErrors.Wrap(errors.New("pq: connection reset"), dErrors.CodeInternal, "failed to load athlete"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/athletes/3"))

		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("internal_error", body["error"])
		s.NotContains(body, "error_description")
	})
}

func (s *RegistryHandlerSuite) TestAchievements() {
	s.Run("list", func() {
		s.service.EXPECT().ListAchievements(gomock.Any(), id.AthleteID(1)).Return([]*models.Achievement{
			{ID: 1, AthleteID: 1, Title: "5k PB"},
			{ID: 2, AthleteID: 1, Title: "10k PB"},
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/athletes/1/achievements"))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[models.AchievementListResponse](s.T(), rr)
		s.Require().Len(resp.Achievements, 2)
		s.Equal("10k PB", resp.Achievements[1].Title)
	})

	s.Run("empty list is an array", func() {
		s.service.EXPECT().ListAchievements(gomock.Any(), id.AthleteID(2)).Return(nil, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/athletes/2/achievements"))

		testutil.AssertStatusOK(s.T(), rr)
		s.JSONEq(`{"achievements":[]}`, rr.Body.String())
	})

	s.Run("get one", func() {
		s.service.EXPECT().GetAchievement(gomock.Any(), id.AthleteID(1), id.AchievementID(2)).
			Return(&models.Achievement{ID: 2, AthleteID: 1, Title: "10k PB", Verified: true}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/athletes/1/achievements/2"))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "is_verified", true)
	})

	s.Run("malformed achievement id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/athletes/1/achievements/-1"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *RegistryHandlerSuite) TestCountsAndRegistryInfo() {
	s.service.EXPECT().GetTotalAthletes(gomock.Any()).Return(uint64(3), nil).Times(2)
	s.service.EXPECT().Owner().Return(id.CallerID("registry-owner"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/athletes/count"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "total", float64(3))

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/registry"))
	testutil.AssertStatusOK(s.T(), rr)
	s.JSONEq(`{"owner":"registry-owner","total_athletes":3}`, rr.Body.String())
}

func (s *RegistryHandlerSuite) TestListEvents() {
	s.Run("pages with a cursor", func() {
		s.service.EXPECT().ListEvents(gomock.Any(), uint64(2), 2).Return([]*models.Event{
			{Seq: 3, Type: models.EventAchievementAdded, AthleteID: 1},
			{Seq: 4, Type: models.EventAthleteVerified, AthleteID: 1, Verified: true},
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/events?after=2&limit=2"))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[models.EventListResponse](s.T(), rr)
		s.Len(resp.Events, 2)
		s.Equal(uint64(4), resp.NextSeq)
	})

	s.Run("empty page keeps the cursor", func() {
		s.service.EXPECT().ListEvents(gomock.Any(), uint64(9), 0).Return(nil, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/events?after=9"))

		testutil.AssertStatusOK(s.T(), rr)
		s.JSONEq(`{"events":[],"next_after":9}`, rr.Body.String())
	})

	s.Run("bad cursor", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/events?after=-1"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}
