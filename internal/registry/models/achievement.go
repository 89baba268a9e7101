package models

import (
	"time"

	id "podium/pkg/domain"
)

// Achievement is an entry appended to an athlete's record. Only Verified
// changes after creation, and only from false to true.
type Achievement struct {
	ID          id.AchievementID `json:"id"`
	AthleteID   id.AthleteID     `json:"athlete_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
	Verified    bool             `json:"is_verified"`
	AddedBy     id.CallerID      `json:"added_by"`
}

// AchievementKey addresses an achievement within the registry.
type AchievementKey struct {
	AthleteID     id.AthleteID
	AchievementID id.AchievementID
}

func NewAchievement(athleteID id.AthleteID, achievementID id.AchievementID, title, description string, addedBy id.CallerID, now time.Time) (*Achievement, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	return &Achievement{
		ID:          achievementID,
		AthleteID:   athleteID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		AddedBy:     addedBy,
	}, nil
}

func (a *Achievement) Key() AchievementKey {
	return AchievementKey{AthleteID: a.AthleteID, AchievementID: a.ID}
}

// MarkVerified flips the verification flag. Repeated calls are no-ops.
func (a *Achievement) MarkVerified() {
	a.Verified = true
}

func (a *Achievement) Clone() *Achievement {
	c := *a
	return &c
}
