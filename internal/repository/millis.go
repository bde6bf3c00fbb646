package repository

import "time"

// Instants are persisted as epoch milliseconds in UTC.

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func optionalMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
