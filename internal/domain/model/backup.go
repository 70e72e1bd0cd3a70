package model

import "time"

// BackupStatus is the server-side lifecycle state of a backup.
type BackupStatus string

const (
	BackupPending   BackupStatus = "pending"
	BackupCompleted BackupStatus = "completed"
	BackupFailed    BackupStatus = "failed"
)

// Backup is an opaque snapshot of tenant data.
type Backup struct {
	ID        int64        `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Status    BackupStatus `json:"status"`
	SizeBytes int64        `json:"size,omitempty"`
}

// RestoreResult is the server answer to a restore request.
type RestoreResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// FailureText returns the most specific server-provided error text.
func (r RestoreResult) FailureText() string {
	switch {
	case r.Error != "":
		return r.Error
	case r.Detail != "":
		return r.Detail
	case r.Message != "":
		return r.Message
	default:
		return "la restauración no fue confirmada por el servidor"
	}
}
