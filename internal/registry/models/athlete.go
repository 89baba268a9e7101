package models

import (
	"time"

	id "podium/pkg/domain"
)

const (
	MinAge = 1
	MaxAge = 99
)

// Athlete is the aggregate root of the registry.
//
// Invariants:
//   - ID is positive and never reused
//   - Name and Sport are non-empty; Age is within [MinAge, MaxAge]
//   - AchievementCount equals the number of stored achievements and only grows
//   - Verified never transitions back to false
//   - Owner and RegisteredAt are immutable after construction
//
// Active is set at registration and checked before achievements are appended.
// There is no operation that deactivates an athlete.
type Athlete struct {
	ID               id.AthleteID `json:"id"`
	Name             string       `json:"name"`
	Sport            string       `json:"sport"`
	Age              int          `json:"age"`
	Country          string       `json:"country"`
	AchievementCount uint64       `json:"achievement_count"`
	Verified         bool         `json:"is_verified"`
	Active           bool         `json:"is_active"`
	Owner            id.CallerID  `json:"owner"`
	RegisteredAt     time.Time    `json:"registered_at"`
}

// ValidateProfile checks the registration fields in the order the registry
// reports them: name, sport, then age.
func ValidateProfile(name, sport string, age int) error {
	if name == "" {
		return ErrEmptyName
	}
	if sport == "" {
		return ErrEmptySport
	}
	if age < MinAge || age > MaxAge {
		return ErrInvalidAge
	}
	return nil
}

// NewAthlete builds an active, unverified athlete owned by the caller.
func NewAthlete(athleteID id.AthleteID, owner id.CallerID, name, sport string, age int, country string, now time.Time) (*Athlete, error) {
	if err := ValidateProfile(name, sport, age); err != nil {
		return nil, err
	}
	return &Athlete{
		ID:           athleteID,
		Name:         name,
		Sport:        sport,
		Age:          age,
		Country:      country,
		Active:       true,
		Owner:        owner,
		RegisteredAt: now,
	}, nil
}

// NextAchievementID is the id the next appended achievement receives.
func (a *Athlete) NextAchievementID() id.AchievementID {
	return id.AchievementID(a.AchievementCount + 1)
}

// HasAchievement reports whether achievementID addresses a stored achievement.
func (a *Athlete) HasAchievement(achievementID id.AchievementID) bool {
	return achievementID >= 1 && uint64(achievementID) <= a.AchievementCount
}

// RecordAchievement bumps the counter after an achievement was stored.
func (a *Athlete) RecordAchievement() {
	a.AchievementCount++
}

// MarkVerified flips the verification flag. Repeated calls are no-ops.
func (a *Athlete) MarkVerified() {
	a.Verified = true
}

// IsOwnedBy reports whether caller registered this athlete.
func (a *Athlete) IsOwnedBy(caller id.CallerID) bool {
	return !caller.IsNil() && a.Owner == caller
}

// Clone returns a copy detached from store state.
func (a *Athlete) Clone() *Athlete {
	c := *a
	return &c
}
