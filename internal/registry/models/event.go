package models

import (
	"time"

	id "podium/pkg/domain"
)

// EventType names a registry notification.
type EventType string

const (
	EventAthleteRegistered EventType = "AthleteRegistered"
	EventAchievementAdded  EventType = "AchievementAdded"
	EventAthleteVerified   EventType = "AthleteVerified"
)

// Event is a notification produced by a committed registry mutation. Seq is
// assigned by the store when the event is appended and orders the stream.
// PublishedAt is nil until the relay hands the event to a publisher.
type Event struct {
	Seq           uint64           `json:"seq"`
	Type          EventType        `json:"type"`
	AthleteID     id.AthleteID     `json:"athlete_id"`
	AchievementID id.AchievementID `json:"achievement_id,omitempty"`
	Name          string           `json:"name,omitempty"`
	Title         string           `json:"title,omitempty"`
	Caller        id.CallerID      `json:"caller,omitempty"`
	Verified      bool             `json:"verified,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
	PublishedAt   *time.Time       `json:"-"`
}

// AthleteRegistered carries (athlete_id, name, caller).
func AthleteRegistered(a *Athlete, now time.Time) *Event {
	return &Event{
		Type:       EventAthleteRegistered,
		AthleteID:  a.ID,
		Name:       a.Name,
		Caller:     a.Owner,
		OccurredAt: now,
	}
}

// AchievementAdded carries (athlete_id, achievement_id, title).
func AchievementAdded(a *Achievement, now time.Time) *Event {
	return &Event{
		Type:          EventAchievementAdded,
		AthleteID:     a.AthleteID,
		AchievementID: a.ID,
		Title:         a.Title,
		OccurredAt:    now,
	}
}

// AthleteVerified carries (athlete_id, verified).
func AthleteVerified(a *Athlete, now time.Time) *Event {
	return &Event{
		Type:       EventAthleteVerified,
		AthleteID:  a.ID,
		Verified:   a.Verified,
		OccurredAt: now,
	}
}

func (e *Event) IsPending() bool {
	return e.PublishedAt == nil
}

func (e *Event) Clone() *Event {
	c := *e
	if e.PublishedAt != nil {
		t := *e.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}
