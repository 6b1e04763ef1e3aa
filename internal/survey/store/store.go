// Package store writes completed survey sessions to an external document store.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"rumble-survey/internal/models"
)

// Collection is where survey responses are written on every backend.
const Collection = "rumble_responses"

// Store appends submissions to a collection. Implementations return
// *errors.StandardError with code STORE_UNAVAILABLE when the backend could not
// be reached and STORE_WRITE_REJECTED when it answered with an error.
// Writes are not deduplicated.
type Store interface {
	Backend() string
	AppendRecord(ctx context.Context, collection string, doc models.SessionSubmission) error
	Ping(ctx context.Context) error
	Close() error
}

// encode marshals doc with completedAt removed; backends stamp it themselves.
func encode(doc models.SessionSubmission) ([]byte, error) {
	doc.CompletedAt = nil
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}
	return payload, nil
}
