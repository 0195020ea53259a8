package db

import "time"

// WithUpdatedTimestamp stamps updated_at on a column update map. Write paths
// call it explicitly instead of relying on model hooks.
func WithUpdatedTimestamp(updates map[string]any, now time.Time) map[string]any {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["updated_at"] = now.UTC()
	return updates
}
