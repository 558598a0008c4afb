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
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
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

// Domain-specific ID types
type (
	RecordID      ID
	ConditionName string
)

func (id RecordID) String() string { return ID(id).String() }

// String returns the condition label as entered (A, B, C or arbitrary)
func (n ConditionName) String() string { return string(n) }

// ParseConditionName validates a condition label
func ParseConditionName(s string) (ConditionName, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("condition name cannot be empty")
	}
	return ConditionName(trimmed), nil
}
