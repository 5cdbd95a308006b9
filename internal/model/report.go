package model

import (
	"strconv"
	"time"
)

// ReportRole selects which side of the contract a payment is attributed to.
type ReportRole string

const (
	ReportRoleClient     ReportRole = "client"
	ReportRoleContractor ReportRole = "contractor"
)

// ReportAttribute names the profile field payments are grouped by.
type ReportAttribute string

const (
	ReportAttributeID         ReportAttribute = "id"
	ReportAttributeProfession ReportAttribute = "profession"
	ReportAttributeFirstName  ReportAttribute = "firstName"
	ReportAttributeLastName   ReportAttribute = "lastName"
	ReportAttributeFullName   ReportAttribute = "fullName"
)

// Value extracts the grouping key from a profile. The second result is false
// for an unknown attribute.
func (a ReportAttribute) Value(p Profile) (string, bool) {
	switch a {
	case ReportAttributeID:
		return strconv.FormatInt(p.ID, 10), true
	case ReportAttributeProfession:
		return p.Profession, true
	case ReportAttributeFirstName:
		return p.FirstName, true
	case ReportAttributeLastName:
		return p.LastName, true
	case ReportAttributeFullName:
		return p.FullName(), true
	}
	return "", false
}

// PaidJob is a settled job reduced to what the reports need.
type PaidJob struct {
	ID           int64
	Price        int64
	PaidAt       time.Time
	ClientID     int64
	ContractorID int64
}

func (j PaidJob) PartyID(role ReportRole) int64 {
	if role == ReportRoleClient {
		return j.ClientID
	}
	return j.ContractorID
}

// PaymentWindow bounds jobs.paid_at. From is inclusive. To is inclusive
// unless ToExclusive is set.
type PaymentWindow struct {
	From        time.Time
	To          time.Time
	ToExclusive bool
}

type PaymentRanking struct {
	Key        string
	AmountPaid int64
}

type RankingReport struct {
	Role        ReportRole
	Attribute   ReportAttribute
	PeriodStart time.Time
	PeriodEnd   time.Time
	Rows        []PaymentRanking
}

func (r ReportRole) Valid() bool {
	return r == ReportRoleClient || r == ReportRoleContractor
}

func (a ReportAttribute) Valid() bool {
	_, ok := a.Value(Profile{})
	return ok
}
