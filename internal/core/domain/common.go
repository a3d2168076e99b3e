package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID Reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID Reference
}

// FlowDirection indicates which way money moved relative to the bank account.
type FlowDirection string

const (
	Inflow  FlowDirection = "INFLOW"
	Outflow FlowDirection = "OUTFLOW"
)
