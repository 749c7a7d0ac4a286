package events

import "time"

// Event types
const (
	UserCreated = "user.created"
	UserDeleted = "user.deleted"

	AccountCreated        = "account.created"
	AccountHistoryUpdated = "account.history_updated"
	AccountDeleted        = "account.deleted"
)

// Stream names
const (
	UserEventsStream    = "user.events"
	AccountEventsStream = "account.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// User events
type UserCreatedEvent struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
}

type UserDeletedEvent struct {
	UserID          int64 `json:"userId"`
	DeletedAccounts int   `json:"deletedAccounts"`
}

// Account events
type AccountCreatedEvent struct {
	AccountID   int64  `json:"accountId"`
	OwnerID     int64  `json:"ownerId"`
	Name        string `json:"name"`
	AccountType string `json:"accountType"`
}

type AccountHistoryUpdatedEvent struct {
	AccountID int64  `json:"accountId"`
	OwnerID   int64  `json:"ownerId"`
	MonthKey  string `json:"monthKey"`
	Created   bool   `json:"created"`
}

type AccountDeletedEvent struct {
	AccountID int64 `json:"accountId"`
	OwnerID   int64 `json:"ownerId"`
	Cascade   bool  `json:"cascade"`
}
