// internal/models/order.go
package models

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusAssigned   OrderStatus = "assigned"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var ValidOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusAssigned:   {},
	OrderStatusInProgress: {},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// ParseOrderStatus validates a raw status read from storage.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(raw)
	if _, ok := ValidOrderStatuses[status]; !ok {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return status, nil
}

// Order is a translation request.
type Order struct {
	ID              string       `json:"id"`
	CustomerID      string       `json:"customerId"`
	SourceLanguage  string       `json:"sourceLanguage"`
	TargetLanguage  string       `json:"targetLanguage"`
	Tags            []string     `json:"tags"`
	ComplexityScore *float64     `json:"complexityScore,omitempty"`
	Status          OrderStatus  `json:"status"`
	CreatedAt       time.Time    `json:"createdAt"`
	Assignments     []Assignment `json:"assignments,omitempty"`
}

// LanguagePair returns the ordered translation direction.
func (o *Order) LanguagePair() LanguagePair {
	return LanguagePair{Source: o.SourceLanguage, Target: o.TargetLanguage}
}

// Complexity returns the complexity score, treating an absent value as zero.
func (o *Order) Complexity() float64 {
	if o.ComplexityScore == nil {
		return 0
	}
	return *o.ComplexityScore
}

// IsEvidence reports whether the order may serve as collaborative evidence.
func (o *Order) IsEvidence() bool {
	return o.Status == OrderStatusCompleted
}

type LanguagePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func (p LanguagePair) String() string {
	return p.Source + "->" + p.Target
}

// Valid reports whether both sides of the pair are set.
func (p LanguagePair) Valid() bool {
	return p.Source != "" && p.Target != ""
}
