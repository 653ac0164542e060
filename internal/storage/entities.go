package storage

import "time"

// Entry is one key-value pair in a configuration group.
type Entry struct {
	Group     string
	Key       string
	Value     string
	UpdatedAt time.Time
}

type ListFilter struct {
	Group  string
	Prefix string
	Limit  int
	Offset int
}
