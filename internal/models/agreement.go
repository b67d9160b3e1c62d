package models

import "time"

// AgreementState is a user's consent position
type AgreementState string

const (
	AgreementNotAgreed AgreementState = "not_agreed"
	AgreementAgreed    AgreementState = "agreed"
)

// Agreement is the stored consent record for one user
type Agreement struct {
	UserID    string         `json:"user_id"`
	State     AgreementState `json:"state"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsAgreed reports whether the user may submit documents
func (a *Agreement) IsAgreed() bool {
	return a != nil && a.State == AgreementAgreed
}
