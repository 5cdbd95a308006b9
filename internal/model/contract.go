package model

import "time"

type ContractStatus string

const (
	ContractStatusNew        ContractStatus = "new"
	ContractStatusInProgress ContractStatus = "in_progress"
	ContractStatusTerminated ContractStatus = "terminated"
)

func (s ContractStatus) Valid() bool {
	switch s {
	case ContractStatusNew, ContractStatusInProgress, ContractStatusTerminated:
		return true
	}
	return false
}

// Contract binds one client profile to one contractor profile. A profile
// cannot sit on both sides of the same contract.
type Contract struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Terms        string         `gorm:"type:text;not null" json:"terms"`
	Status       ContractStatus `gorm:"type:varchar(16);not null;default:new" json:"status"`
	ClientID     int64          `gorm:"not null;index;check:chk_contracts_parties,client_id <> contractor_id" json:"ClientId"`
	ContractorID int64          `gorm:"not null;index" json:"ContractorId"`
	Client       *Profile       `gorm:"foreignKey:ClientID" json:"-"`
	Contractor   *Profile       `gorm:"foreignKey:ContractorID" json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// HasParty reports whether the profile is the client or the contractor.
func (c Contract) HasParty(profileID int64) bool {
	return c.ClientID == profileID || c.ContractorID == profileID
}
