package models

import "time"

// AuditEntry records a side-effecting action against a resource.
type AuditEntry struct {
	ID             int64     `db:"id" json:"id"`
	Action         string    `db:"action" json:"action"`
	Resource       string    `db:"resource" json:"resource"`
	ResourceID     int64     `db:"resource_id" json:"resource_id"`
	ActorID        int64     `db:"actor_id" json:"actor_id"`
	OrganizationID int64     `db:"organization_id" json:"organization_id"`
	Metadata       string    `db:"metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
