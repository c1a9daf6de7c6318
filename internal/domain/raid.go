package domain

import "time"

// Raid is a scheduled group event with a fixed participant capacity.
// Start times are stored and compared as UTC instants.
type Raid struct {
	ID        int64
	Boss      string
	StartTime time.Time
	Capacity  int
	CreatorID int64
	CreatedAt time.Time
}

// Participation records that a user joined a raid. The (RaidID, UserID)
// pair is unique; there is no leave operation.
type Participation struct {
	RaidID   int64
	UserID   int64
	JoinedAt time.Time
}

// RaidSummary is a consistent snapshot row used by the export report.
type RaidSummary struct {
	ID           int64
	Boss         string
	StartTime    time.Time
	Capacity     int
	Participants int
}
