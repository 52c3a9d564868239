package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Falls back to v4 if v7 generation fails
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// JobID identifies one goodness-of-fit job inside a batch
type JobID ID

func (id JobID) String() string { return ID(id).String() }

// IsEmpty reports whether the job has no ID yet
func (id JobID) IsEmpty() bool { return ID(id).IsEmpty() }

// NewJobID creates a time-ordered job identifier
func NewJobID() JobID {
	return JobID(NewID())
}

// ParseJobID parses a string into JobID
func ParseJobID(s string) (JobID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("job ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("job ID %q is not a UUID: %w", s, err)
	}
	return JobID(s), nil
}
