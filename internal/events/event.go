// Package events publishes domain events to Kafka and reacts to events from
// other replicas.
package events

import "time"

const (
	ChairPurchased          = "chair_purchased"
	EstateDocumentRequested = "estate_document_requested"
	ChairsImported          = "chairs_imported"
	EstatesImported         = "estates_imported"
	DatasetReset            = "dataset_reset"
)

type Event struct {
	Type     string    `json:"type"`
	ID       int64     `json:"id,omitempty"`
	Email    string    `json:"email,omitempty"`
	Count    int       `json:"count,omitempty"`
	Instance string    `json:"instance"`
	TS       time.Time `json:"ts"`
}
