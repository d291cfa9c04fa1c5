package enums

import "fmt"

// SyncStatus describes where a record sits in the cloud-sync lifecycle.
type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusUploading SyncStatus = "uploading"
	SyncStatusSynced    SyncStatus = "synced"
	SyncStatusFailed    SyncStatus = "failed"
)

var validSyncStatuses = []SyncStatus{
	SyncStatusPending,
	SyncStatusUploading,
	SyncStatusSynced,
	SyncStatusFailed,
}

// IsValid reports whether the value matches the canonical sync status enum.
func (s SyncStatus) IsValid() bool {
	for _, candidate := range validSyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncStatus converts the raw string to SyncStatus.
func ParseSyncStatus(value string) (SyncStatus, error) {
	for _, candidate := range validSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync status %q", value)
}
