package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"podium/internal/registry/models"
	"podium/internal/registry/service"
	id "podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// InMemoryStore keeps the registry in process memory.
//
// Writers are serialized by writeMu for the whole RunInTx callback. The
// callback sees a staged overlay that is applied under mu only when it returns
// nil, so readers never observe a partial mutation.
type InMemoryStore struct {
	writeMu sync.Mutex

	mu           sync.RWMutex
	athletes     []*models.Athlete // index = id-1
	achievements map[models.AchievementKey]*models.Achievement
	callers      map[id.CallerID]id.AthleteID
	events       []*models.Event // index = seq-1
	lastCommitAt time.Time

	// firstPending is the index of the oldest unpublished event; every event
	// before it has been published. pending counts unpublished events.
	firstPending int
	pending      int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		achievements: make(map[models.AchievementKey]*models.Achievement),
		callers:      make(map[id.CallerID]id.AthleteID),
	}
}

// RunInTx runs fn against a staged view and commits its writes if fn succeeds.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(store service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	staged := newStagedTx(s)
	if err := fn(staged); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	staged.apply()
	return nil
}

func (s *InMemoryStore) FindAthlete(_ context.Context, athleteID id.AthleteID) (*models.Athlete, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	athlete := s.athleteLocked(athleteID)
	if athlete == nil {
		return nil, sentinel.ErrNotFound
	}
	return athlete.Clone(), nil
}

func (s *InMemoryStore) FindAthleteIDByCaller(_ context.Context, caller id.CallerID) (id.AthleteID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	athleteID, ok := s.callers[caller]
	if !ok {
		return id.NoAthlete, sentinel.ErrNotFound
	}
	return athleteID, nil
}

func (s *InMemoryStore) FindAchievement(_ context.Context, key models.AchievementKey) (*models.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	achievement, ok := s.achievements[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return achievement.Clone(), nil
}

func (s *InMemoryStore) ListAchievements(_ context.Context, athleteID id.AthleteID) ([]*models.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	athlete := s.athleteLocked(athleteID)
	if athlete == nil {
		return nil, sentinel.ErrNotFound
	}
	out := make([]*models.Achievement, 0, athlete.AchievementCount)
	for n := uint64(1); n <= athlete.AchievementCount; n++ {
		key := models.AchievementKey{AthleteID: athleteID, AchievementID: id.AchievementID(n)}
		if achievement, ok := s.achievements[key]; ok {
			out = append(out, achievement.Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) CountAthletes(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.athletes)), nil
}

func (s *InMemoryStore) ListEvents(_ context.Context, afterSeq uint64, limit int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if afterSeq >= uint64(len(s.events)) || limit <= 0 {
		return []*models.Event{}, nil
	}
	tail := s.events[afterSeq:]
	if len(tail) > limit {
		tail = tail[:limit]
	}
	out := make([]*models.Event, 0, len(tail))
	for _, event := range tail {
		out = append(out, event.Clone())
	}
	return out, nil
}

// FetchUnpublished returns up to limit events not yet handed to a publisher,
// oldest first.
func (s *InMemoryStore) FetchUnpublished(_ context.Context, limit int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Event, 0)
	for _, event := range s.events[s.firstPending:] {
		if len(out) >= limit {
			break
		}
		if event.IsPending() {
			out = append(out, event.Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, seq uint64, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq == 0 || seq > uint64(len(s.events)) {
		return fmt.Errorf("mark event %d published: %w", seq, sentinel.ErrNotFound)
	}
	event := s.events[seq-1]
	if !event.IsPending() {
		return nil
	}
	at := publishedAt
	event.PublishedAt = &at
	s.pending--
	for s.firstPending < len(s.events) && !s.events[s.firstPending].IsPending() {
		s.firstPending++
	}
	return nil
}

func (s *InMemoryStore) CountPending(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending, nil
}

func (s *InMemoryStore) athleteLocked(athleteID id.AthleteID) *models.Athlete {
	if athleteID.IsNil() || uint64(athleteID) > uint64(len(s.athletes)) {
		return nil
	}
	return s.athletes[athleteID-1]
}

// stagedTx is the service.Store view of one transaction. Committed state is
// read directly: writeMu is held for the lifetime of the view, so nothing else
// mutates it.
type stagedTx struct {
	base *InMemoryStore

	created      []*models.Athlete
	updated      map[id.AthleteID]*models.Athlete
	achievements map[models.AchievementKey]*models.Achievement
	callers      map[id.CallerID]id.AthleteID
	events       []*models.Event
	commitAt     time.Time
}

func newStagedTx(base *InMemoryStore) *stagedTx {
	return &stagedTx{
		base:         base,
		updated:      make(map[id.AthleteID]*models.Athlete),
		achievements: make(map[models.AchievementKey]*models.Achievement),
		callers:      make(map[id.CallerID]id.AthleteID),
	}
}

func (t *stagedTx) committedCount() uint64 {
	return uint64(len(t.base.athletes))
}

func (t *stagedTx) lookup(athleteID id.AthleteID) *models.Athlete {
	if athlete, ok := t.updated[athleteID]; ok {
		return athlete
	}
	if athleteID.IsNil() {
		return nil
	}
	if uint64(athleteID) <= t.committedCount() {
		return t.base.athletes[athleteID-1]
	}
	idx := uint64(athleteID) - t.committedCount() - 1
	if idx < uint64(len(t.created)) {
		return t.created[idx]
	}
	return nil
}

func (t *stagedTx) FindAthlete(_ context.Context, athleteID id.AthleteID) (*models.Athlete, error) {
	athlete := t.lookup(athleteID)
	if athlete == nil {
		return nil, sentinel.ErrNotFound
	}
	return athlete.Clone(), nil
}

func (t *stagedTx) FindAthleteIDByCaller(_ context.Context, caller id.CallerID) (id.AthleteID, error) {
	if athleteID, ok := t.callers[caller]; ok {
		return athleteID, nil
	}
	if athleteID, ok := t.base.callers[caller]; ok {
		return athleteID, nil
	}
	return id.NoAthlete, sentinel.ErrNotFound
}

func (t *stagedTx) NextAthleteID(_ context.Context) (id.AthleteID, error) {
	return id.AthleteID(t.committedCount() + uint64(len(t.created)) + 1), nil
}

func (t *stagedTx) CreateAthlete(ctx context.Context, athlete *models.Athlete) error {
	if _, err := t.FindAthleteIDByCaller(ctx, athlete.Owner); err == nil {
		return sentinel.ErrConflict
	}
	next, _ := t.NextAthleteID(ctx)
	if athlete.ID != next {
		return fmt.Errorf("create athlete %d: expected id %d: %w", athlete.ID, next, sentinel.ErrInvalidState)
	}
	t.created = append(t.created, athlete.Clone())
	t.callers[athlete.Owner] = athlete.ID
	return nil
}

func (t *stagedTx) UpdateAthlete(_ context.Context, athlete *models.Athlete) error {
	if uint64(athlete.ID) > t.committedCount() {
		idx := uint64(athlete.ID) - t.committedCount() - 1
		if athlete.ID.IsNil() || idx >= uint64(len(t.created)) {
			return sentinel.ErrNotFound
		}
		t.created[idx] = athlete.Clone()
		return nil
	}
	if athlete.ID.IsNil() {
		return sentinel.ErrNotFound
	}
	t.updated[athlete.ID] = athlete.Clone()
	return nil
}

func (t *stagedTx) FindAchievement(_ context.Context, key models.AchievementKey) (*models.Achievement, error) {
	if achievement, ok := t.achievements[key]; ok {
		return achievement.Clone(), nil
	}
	if achievement, ok := t.base.achievements[key]; ok {
		return achievement.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (t *stagedTx) CreateAchievement(ctx context.Context, achievement *models.Achievement) error {
	if _, err := t.FindAchievement(ctx, achievement.Key()); err == nil {
		return sentinel.ErrConflict
	}
	t.achievements[achievement.Key()] = achievement.Clone()
	return nil
}

func (t *stagedTx) UpdateAchievement(ctx context.Context, achievement *models.Achievement) error {
	if _, err := t.FindAchievement(ctx, achievement.Key()); err != nil {
		return err
	}
	t.achievements[achievement.Key()] = achievement.Clone()
	return nil
}

// AppendEvent assigns the next sequence number to event.
func (t *stagedTx) AppendEvent(_ context.Context, event *models.Event) error {
	event.Seq = uint64(len(t.base.events)+len(t.events)) + 1
	t.events = append(t.events, event.Clone())
	return nil
}

func (t *stagedTx) CommitTime(now time.Time) time.Time {
	floor := t.base.lastCommitAt
	if t.commitAt.After(floor) {
		floor = t.commitAt
	}
	if now.Before(floor) {
		now = floor
	}
	t.commitAt = now
	return now
}

// apply publishes the staged writes. Callers hold base.mu for writing.
func (t *stagedTx) apply() {
	base := t.base
	for athleteID, athlete := range t.updated {
		base.athletes[athleteID-1] = athlete
	}
	base.athletes = append(base.athletes, t.created...)
	for caller, athleteID := range t.callers {
		base.callers[caller] = athleteID
	}
	for key, achievement := range t.achievements {
		base.achievements[key] = achievement
	}
	base.events = append(base.events, t.events...)
	base.pending += int64(len(t.events))
	if t.commitAt.After(base.lastCommitAt) {
		base.lastCommitAt = t.commitAt
	}
}
