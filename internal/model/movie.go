package model

import "time"

// Movie is a film that can be scheduled. Names are unique.
type Movie struct {
	ID        string    // movies.id
	Name      string    // movies.name
	Duration  int       // movies.duration, in minutes
	CreatedAt time.Time // movies.created_at
	UpdatedAt time.Time // movies.updated_at
}
