package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"podium/internal/registry/models"
	"podium/internal/registry/service"
	id "podium/pkg/domain"
	"podium/pkg/platform/sentinel"
)

var (
	_ service.Reader     = (*InMemoryStore)(nil)
	_ service.RegistryTx = (*InMemoryStore)(nil)
	_ service.Reader     = (*PostgresStore)(nil)
	_ service.RegistryTx = (*PostgresStore)(nil)
	_ service.Store      = (*stagedTx)(nil)
	_ service.Store      = (*postgresTx)(nil)
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func (s *InMemoryStoreSuite) register(caller id.CallerID, name string) id.AthleteID {
	var athleteID id.AthleteID
	err := s.store.RunInTx(s.ctx, func(tx service.Store) error {
		next, err := tx.NextAthleteID(s.ctx)
		if err != nil {
			return err
		}
		athlete, err := models.NewAthlete(next, caller, name, "Running", 30, "Kenya", s.now)
		if err != nil {
			return err
		}
		if err := tx.CreateAthlete(s.ctx, athlete); err != nil {
			return err
		}
		athleteID = next
		return tx.AppendEvent(s.ctx, models.AthleteRegistered(athlete, s.now))
	})
	s.Require().NoError(err)
	return athleteID
}

func (s *InMemoryStoreSuite) TestCommitMakesWritesVisible() {
	athleteID := s.register("alice", "Alice")
	s.Equal(id.AthleteID(1), athleteID)

	athlete, err := s.store.FindAthlete(s.ctx, athleteID)
	s.Require().NoError(err)
	s.Equal("Alice", athlete.Name)
	s.Equal(id.CallerID("alice"), athlete.Owner)

	mapped, err := s.store.FindAthleteIDByCaller(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(athleteID, mapped)

	total, err := s.store.CountAthletes(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), total)
}

func (s *InMemoryStoreSuite) TestFailedCallbackLeavesNoTrace() {
	boom := errors.New("boom")
	err := s.store.RunInTx(s.ctx, func(tx service.Store) error {
		athlete, err := models.NewAthlete(1, "alice", "Alice", "Running", 30, "", s.now)
		s.Require().NoError(err)
		s.Require().NoError(tx.CreateAthlete(s.ctx, athlete))
		s.Require().NoError(tx.AppendEvent(s.ctx, models.AthleteRegistered(athlete, s.now)))

		staged, err := tx.FindAthlete(s.ctx, 1)
		s.Require().NoError(err)
		s.Equal("Alice", staged.Name)
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindAthlete(s.ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindAthleteIDByCaller(s.ctx, "alice")
	s.ErrorIs(err, sentinel.ErrNotFound)
	events, err := s.store.ListEvents(s.ctx, 0, 10)
	s.Require().NoError(err)
	s.Empty(events)

	s.Equal(id.AthleteID(1), s.register("bob", "Bob"), "aborted allocation must not leave a gap")
}

func (s *InMemoryStoreSuite) TestCreateAthleteRejectsMappedCaller() {
	s.register("alice", "Alice")

	err := s.store.RunInTx(s.ctx, func(tx service.Store) error {
		next, _ := tx.NextAthleteID(s.ctx)
		athlete, err := models.NewAthlete(next, "alice", "Again", "Running", 30, "", s.now)
		s.Require().NoError(err)
		return tx.CreateAthlete(s.ctx, athlete)
	})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestCreateAthleteRejectsOutOfOrderID() {
	err := s.store.RunInTx(s.ctx, func(tx service.Store) error {
		athlete, err := models.NewAthlete(5, "alice", "Alice", "Running", 30, "", s.now)
		s.Require().NoError(err)
		return tx.CreateAthlete(s.ctx, athlete)
	})
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *InMemoryStoreSuite) TestReadsReturnCopies() {
	athleteID := s.register("alice", "Alice")

	athlete, err := s.store.FindAthlete(s.ctx, athleteID)
	s.Require().NoError(err)
	athlete.Verified = true
	athlete.Name = "Mallory"

	again, err := s.store.FindAthlete(s.ctx, athleteID)
	s.Require().NoError(err)
	s.False(again.Verified)
	s.Equal("Alice", again.Name)
}

func (s *InMemoryStoreSuite) TestAchievementsListedInOrder() {
	athleteID := s.register("alice", "Alice")
	for _, title := range []string{"first", "second", "third"} {
		err := s.store.RunInTx(s.ctx, func(tx service.Store) error {
			athlete, err := tx.FindAthlete(s.ctx, athleteID)
			if err != nil {
				return err
			}
			achievement, err := models.NewAchievement(athleteID, athlete.NextAchievementID(), title, "", "alice", s.now)
			if err != nil {
				return err
			}
			if err := tx.CreateAchievement(s.ctx, achievement); err != nil {
				return err
			}
			athlete.RecordAchievement()
			return tx.UpdateAthlete(s.ctx, athlete)
		})
		s.Require().NoError(err)
	}

	list, err := s.store.ListAchievements(s.ctx, athleteID)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	for i, achievement := range list {
		s.Equal(id.AchievementID(i+1), achievement.ID)
	}
	s.Equal("third", list[2].Title)

	_, err = s.store.ListAchievements(s.ctx, 99)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestEventSequenceAndOutbox() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	s.register("carol", "Carol")

	events, err := s.store.ListEvents(s.ctx, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	for i, event := range events {
		s.Equal(uint64(i+1), event.Seq)
	}

	tail, err := s.store.ListEvents(s.ctx, 1, 1)
	s.Require().NoError(err)
	s.Require().Len(tail, 1)
	s.Equal("Bob", tail[0].Name)

	pending, err := s.store.FetchUnpublished(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(uint64(1), pending[0].Seq)

	s.Require().NoError(s.store.MarkPublished(s.ctx, 1, s.now))
	s.Require().NoError(s.store.MarkPublished(s.ctx, 1, s.now), "marking twice is a no-op")

	count, err := s.store.CountPending(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	pending, err = s.store.FetchUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(uint64(2), pending[0].Seq)

	s.ErrorIs(s.store.MarkPublished(s.ctx, 42, s.now), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestOutOfOrderPublishingKeepsCursorAndCount() {
	for _, caller := range []id.CallerID{"a", "b", "c", "d"} {
		s.register(caller, string(caller))
	}

	s.Require().NoError(s.store.MarkPublished(s.ctx, 2, s.now))
	s.Require().NoError(s.store.MarkPublished(s.ctx, 3, s.now))

	count, err := s.store.CountPending(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	pending, err := s.store.FetchUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(uint64(1), pending[0].Seq)
	s.Equal(uint64(4), pending[1].Seq)

	s.Require().NoError(s.store.MarkPublished(s.ctx, 1, s.now))
	s.Equal(3, s.store.firstPending, "cursor skips the run of published events")

	pending, err = s.store.FetchUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(uint64(4), pending[0].Seq)

	s.Require().NoError(s.store.MarkPublished(s.ctx, 4, s.now))
	count, err = s.store.CountPending(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
	pending, err = s.store.FetchUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)

	s.register("e", "e")
	pending, err = s.store.FetchUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(uint64(5), pending[0].Seq)
}

func (s *InMemoryStoreSuite) TestCommitTimeNeverGoesBackwards() {
	later := s.now.Add(time.Minute)
	err := s.store.RunInTx(s.ctx, func(tx service.Store) error {
		s.Equal(later, tx.CommitTime(later))
		s.Equal(later, tx.CommitTime(s.now), "raised to the time already taken in this transaction")
		return nil
	})
	s.Require().NoError(err)

	err = s.store.RunInTx(s.ctx, func(tx service.Store) error {
		s.Equal(later, tx.CommitTime(s.now))
		return nil
	})
	s.Require().NoError(err)

	err = s.store.RunInTx(s.ctx, func(tx service.Store) error {
		tx.CommitTime(later.Add(time.Hour))
		return errors.New("rolled back")
	})
	s.Require().Error(err)

	err = s.store.RunInTx(s.ctx, func(tx service.Store) error {
		s.Equal(later, tx.CommitTime(s.now), "aborted transactions do not advance the clock")
		return nil
	})
	s.Require().NoError(err)
}

func (s *InMemoryStoreSuite) TestCancelledContextAbortsBeforeCallback() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	called := false
	err := s.store.RunInTx(ctx, func(service.Store) error {
		called = true
		return nil
	})
	s.Error(err)
	s.False(called)
}

func TestInMemoryStore_ConcurrentRegistrationsStayDense(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	now := time.Now()

	const callers = 50
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(n int) {
			defer wg.Done()
			err := store.RunInTx(ctx, func(tx service.Store) error {
				next, err := tx.NextAthleteID(ctx)
				if err != nil {
					return err
				}
				caller := id.CallerID("caller-" + id.AthleteID(n).String())
				athlete, err := models.NewAthlete(next, caller, "Runner", "Running", 20, "", now)
				if err != nil {
					return err
				}
				return tx.CreateAthlete(ctx, athlete)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	total, err := store.CountAthletes(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(callers), total)
	for n := 1; n <= callers; n++ {
		athlete, err := store.FindAthlete(ctx, id.AthleteID(n))
		require.NoError(t, err)
		assert.Equal(t, id.AthleteID(n), athlete.ID)
	}
}
