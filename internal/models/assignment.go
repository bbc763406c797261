// internal/models/assignment.go
package models

import "time"

// Assignment links one order to one translator.
type Assignment struct {
	ID           string    `json:"id"`
	OrderID      string    `json:"orderId"`
	TranslatorID string    `json:"translatorId,omitempty"`
	AssignedAt   time.Time `json:"assignedAt"`
}

// Credited reports whether the assignment names a translator.
func (a Assignment) Credited() bool {
	return a.TranslatorID != ""
}
