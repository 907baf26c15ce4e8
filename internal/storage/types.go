package storage

import "time"

// UsageRecord tracks accumulated usage for one target (an application
// or activity label). Today and Yesterday are minutes. ActiveSince is
// present exactly when an accounting interval is open; Active mirrors
// it so persisted records stay self-describing after a crash.
type UsageRecord struct {
	Today       float64    `json:"today"`
	Yesterday   float64    `json:"yesterday"`
	ActiveSince *time.Time `json:"active_since,omitempty"`
	Active      bool       `json:"active"`
}

// FitnessSnapshot holds the latest known values from the sensor feed.
// HeartRate and CaloriesBurned are zero when the sensor has never
// reported them.
type FitnessSnapshot struct {
	StepCount      int `json:"step_count"`
	HeartRate      int `json:"heart_rate,omitempty"`
	CaloriesBurned int `json:"calories_burned,omitempty"`
}

// ActivityEntry is one manually logged activity.
type ActivityEntry struct {
	Type      string    `json:"type"`
	Minutes   int       `json:"minutes"`
	Timestamp time.Time `json:"timestamp"`
}
