package domain

import "time"

// Activity log actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ActivityLog is an append-only audit entry written as a side effect of every
// complaint mutation. Best-effort by contract: a failed append never fails
// the mutation it describes.
type ActivityLog struct {
	LogID       string    `json:"id" dynamodbav:"log_id"`
	Action      string    `json:"action" dynamodbav:"action"`
	ComplaintID string    `json:"complaintId" dynamodbav:"complaint_id"`
	UserID      string    `json:"userId" dynamodbav:"user_id"`
	Details     string    `json:"details" dynamodbav:"details"`
	Timestamp   time.Time `json:"timestamp" dynamodbav:"created_at"`
}
