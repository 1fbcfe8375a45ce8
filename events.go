package main

import (
	"time"

	"github.com/google/uuid"
)

// Event describes one successful change to a buffer.
type Event struct {
	ID       uuid.UUID `json:"id"`
	Buffer   string    `json:"buffer"`
	Op       string    `json:"op"`
	Size     int       `json:"size"`
	Capacity int       `json:"capacity"`
	Version  int       `json:"version"`
	At       time.Time `json:"at"`
}

func newEvent(op string, stats BufferStats) Event {
	return Event{
		ID:       uuid.New(),
		Buffer:   stats.Name,
		Op:       op,
		Size:     stats.Size,
		Capacity: stats.Capacity,
		Version:  stats.Version,
		At:       time.Now().UTC(),
	}
}
