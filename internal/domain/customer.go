package domain

import "time"

// Customer is the requester a ticket is opened for.
type Customer struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	CreatedAt time.Time
}
