package model

import "time"

type Job struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Price       int64      `gorm:"not null;check:price > 0" json:"price"`
	Paid        bool       `gorm:"not null;default:false" json:"paid"`
	PaidAt      *time.Time `json:"paymentDate"`
	ContractID  int64      `gorm:"not null;index" json:"ContractId"`
	Contract    *Contract  `gorm:"foreignKey:ContractID" json:"Contract,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// PayableJob is an unpaid job resolved together with both parties of its contract.
type PayableJob struct {
	ID           int64
	Price        int64
	ContractID   int64
	ClientID     int64
	ContractorID int64
}

// JobReceipt describes a settled job for the receipt document.
type JobReceipt struct {
	Job        Job
	Contract   Contract
	Client     Profile
	Contractor Profile
}
