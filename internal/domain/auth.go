package domain

import "time"

// SubjectType identifies who a token was issued to.
type SubjectType string

const SubjectTypeAgent SubjectType = "AGENT"

// Token represents issued authentication token metadata.
type Token struct {
	SubjectID string
	Subject   SubjectType
	Role      AgentType
	ExpiresAt time.Time
	IssuedAt  time.Time
}
