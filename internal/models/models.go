// Package models defines the data structures persisted in the history
// database.
package models

import "time"

// Server represents one discovered game server tracked across runs.
type Server struct {
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	IP          string    `json:"ip"`
	CountryCode string    `json:"country_code"`
	Port        int       `json:"port"`
	Count       int64     `json:"count"`
}

// Run represents one completed fan-out over the configured masters.
type Run struct {
	StartedAt     time.Time `json:"started_at"`
	ListHash      string    `json:"list_hash"`
	ID            int64     `json:"id"`
	MastersTotal  int       `json:"masters_total"`
	MastersFailed int       `json:"masters_failed"`
	ServersTotal  int       `json:"servers_total"`
}
