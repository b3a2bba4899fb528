package entities

import "time"

// RewindPair is derived from a rewind-complete activity.
// RestorePoint is when the restore was recorded, BackupPoint is the moment
// in history the site was rolled back to.
type RewindPair struct {
	ActivityID   string    `json:"activity_id"`
	RestorePoint time.Time `json:"restore_point"`
	BackupPoint  time.Time `json:"backup_point"`
}

// Covers reports whether ts lies strictly inside the rolled-back window.
func (p RewindPair) Covers(ts time.Time) bool {
	return p.BackupPoint.Before(ts) && ts.Before(p.RestorePoint)
}
