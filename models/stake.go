package models

import (
	"time"
)

// StakeStatus represents the lifecycle state of a stake
type StakeStatus string

const (
	StakeStatusPending  StakeStatus = "PENDING"
	StakeStatusAccepted StakeStatus = "ACCEPTED"
	StakeStatusRejected StakeStatus = "REJECTED"
	StakeStatusExpired  StakeStatus = "EXPIRED"
)

// IsTerminal reports whether no further transition may leave this status
func (s StakeStatus) IsTerminal() bool {
	switch s {
	case StakeStatusAccepted, StakeStatusRejected, StakeStatusExpired:
		return true
	}
	return false
}

// IsValid reports whether the status is one of the four known states
func (s StakeStatus) IsValid() bool {
	return s == StakeStatusPending || s.IsTerminal()
}

// Stake represents one coin escrow placed against completing one issue.
// The escrowed amount is debited at creation and returned or forfeited by
// exactly one terminal transition. Stakes are never deleted.
type Stake struct {
	ID          int64       `db:"id" json:"id"`
	UserID      int64       `db:"user_id" json:"userId"`
	IssueID     int64       `db:"issue_id" json:"issueId"`
	Repository  string      `db:"repository" json:"repository"`
	Amount      int64       `db:"amount" json:"amount"`
	PRURL       *string     `db:"pr_url" json:"prUrl,omitempty"`
	Status      StakeStatus `db:"status" json:"status"`
	XPEarned    int64       `db:"xp_earned" json:"xpEarned"`
	CoinsEarned int64       `db:"coins_earned" json:"coinsEarned"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}
