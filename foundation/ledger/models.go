package ledger

import "time"

// Charity represents a registered charity record on the ledger.
type Charity struct {
	ID          uint64
	Admin       string
	Name        string
	Description string
	Verified    bool
}

// Project represents a charity project record on the ledger. ContentRef is
// the content addressed reference to the project's off ledger documents.
type Project struct {
	ID          uint64
	CharityID   uint64
	Name        string
	Description string
	ContentRef  string
	Goal        string
	Active      bool
}

// Proposal represents a funding proposal attached to a project.
type Proposal struct {
	ID              uint64
	ProjectID       uint64
	RequestedAmount string
	Destination     string
	Approved        bool
	Claimed         bool
}

// Donation represents a recorded donation transaction on the ledger.
type Donation struct {
	ID        uint64
	ProjectID uint64
	Donor     string
	Amount    string
	Timestamp time.Time
}

// Round represents a funding round and its pooled amount.
type Round struct {
	ID          uint64
	StartTime   time.Time
	EndTime     time.Time
	Pool        string
	Distributed bool
}

// ProjectBalance represents the ledger held balance and wallet address for
// one project.
type ProjectBalance struct {
	ProjectID uint64
	Balance   string
	Wallet    string
}

// ProjectStats represents the aggregate donation statistics for one project
// active in the current round.
type ProjectStats struct {
	ProjectID    uint64
	UniqueDonors uint64
	TotalDonated string
}

// Allocation represents one project's share of a distributed round, decoded
// from the allocation event the distribution transaction emitted.
type Allocation struct {
	RoundID   uint64
	ProjectID uint64
	Amount    string
}
