package model

import "time"

type ProfileRole string

const (
	ProfileRoleClient     ProfileRole = "client"
	ProfileRoleContractor ProfileRole = "contractor"
)

type Profile struct {
	ID         int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName  string      `gorm:"not null" json:"firstName"`
	LastName   string      `gorm:"not null" json:"lastName"`
	Profession string      `gorm:"not null" json:"profession"`
	Balance    int64       `gorm:"not null;default:0" json:"balance"`
	Role       ProfileRole `gorm:"type:varchar(16);not null;check:chk_profiles_role,role IN ('client','contractor')" json:"type"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

func (p Profile) IsClient() bool {
	return p.Role == ProfileRoleClient
}

func (p Profile) IsContractor() bool {
	return p.Role == ProfileRoleContractor
}
