package jobs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// JobPayload is the unit of work submitted by the rest of the application.
// OrgID scopes the job to a tenant and is mandatory; Data carries the
// type-specific arguments and defaults to an empty map.
type JobPayload struct {
	OrgID string         `json:"orgId" validate:"required"`
	Type  string         `json:"type" validate:"required"`
	Data  map[string]any `json:"data"`
}

// Normalized returns a copy of the payload with Data defaulted to an
// empty map. Every hash, insert, and dispatch works on the normalized
// form so that "no data" and "empty data" are the same job.
func (p JobPayload) Normalized() JobPayload {
	if p.Data == nil {
		p.Data = map[string]any{}
	}
	return p
}

// JobResult is what a handler reports after running to completion.
// It is persisted verbatim into the run log.
type JobResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// QueuedJob is a claimed queue row handed to the executor. ID is the
// storage row identity and is not the deduplication key; Attempts
// includes the claim that produced this value.
type QueuedJob struct {
	ID        uint
	Payload   JobPayload
	Attempts  int
	CreatedAt time.Time
}

// JobID derives the idempotency key for a payload: a hex sha256 over the
// normalized payload serialized with a fixed field order. encoding/json
// sorts map keys, so two semantically identical payloads always produce
// the same id no matter how many rows or pushes delivered them.
func JobID(p JobPayload) string {
	n := p.Normalized()
	b, _ := json.Marshal(struct {
		OrgID string         `json:"orgId"`
		Type  string         `json:"type"`
		Data  map[string]any `json:"data"`
	}{n.OrgID, n.Type, n.Data})

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
