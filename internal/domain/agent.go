package domain

import "time"

// AgentType is the agent's tier.
type AgentType string

const (
	AgentTypeSuperAgent AgentType = "SUPERAGENT"
	AgentTypeAgent      AgentType = "AGENT"
)

// Valid reports whether t is a known tier.
func (t AgentType) Valid() bool {
	return t == AgentTypeSuperAgent || t == AgentTypeAgent
}

// AgentStatus is derived from the agent's open assignments and never stored.
type AgentStatus string

const (
	AgentStatusAvailable AgentStatus = "AVAILABLE"
	AgentStatusBusy      AgentStatus = "BUSY"
)

// Agent models a support agent that tickets get dispatched to.
type Agent struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Type         AgentType
	OpenTickets  int
	CreatedAt    time.Time
}

// Status derives availability from the number of IN_PROGRESS tickets held.
func (a *Agent) Status() AgentStatus {
	if a.OpenTickets > 0 {
		return AgentStatusBusy
	}
	return AgentStatusAvailable
}

// DisplayName joins first and last name.
func (a *Agent) DisplayName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}
