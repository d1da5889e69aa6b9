package domain

import "time"

// AssignmentJobName is the key of the singleton job row that guards the draw.
const AssignmentJobName = "gift-assignment"

// ScheduledJob is the durable run-once record for a deadline-triggered job.
// HasRun flips to true in the same transaction that writes the job's results,
// so a crash before commit leaves it false and the job is retried on the next
// process start.
type ScheduledJob struct {
	Name             string     `json:"name"              gorm:"type:varchar(64);primaryKey"`
	HasRun           bool       `json:"has_run"           gorm:"not null;default:false"`
	Deadline         time.Time  `json:"deadline"          gorm:"not null"`
	RanAt            *time.Time `json:"ran_at,omitempty"`
	ParticipantCount int        `json:"participant_count" gorm:"not null;default:0"`
	Attempts         int        `json:"attempts"          gorm:"not null;default:0"`
	LastError        string     `json:"last_error,omitempty" gorm:"type:text;not null;default:''"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ScheduledJob.
func (ScheduledJob) TableName() string { return "scheduled_jobs" }
