package public

import (
	"time"

	"github.com/dermacoin/platform/business/sys/validate"
	"github.com/dermacoin/platform/foundation/ledger"
)

// challengeRequest asks for a one time message to sign for login.
type challengeRequest struct {
	Address string `json:"address" validate:"required,eth_addr"`
}

// loginRequest exchanges a signed challenge for a bearer token. The admin
// role is never granted here; administrative writes live on the private
// listener and don't authenticate by token.
type loginRequest struct {
	Address   string `json:"address" validate:"required,eth_addr"`
	Message   string `json:"message" validate:"required"`
	Signature string `json:"signature" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=donor charity"`
}

// newCharity is what a caller provides to register a charity.
type newCharity struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Passphrase  string `json:"passphrase" validate:"required"`
}

// newProject is what a caller provides to create a project.
type newProject struct {
	CharityID   uint64 `json:"charityId" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	ContentRef  string `json:"contentRef"`
	Passphrase  string `json:"passphrase" validate:"required"`
}

// newDonation is what a caller provides to donate to a project.
type newDonation struct {
	ProjectID  uint64 `json:"projectId" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
	Passphrase string `json:"passphrase" validate:"required"`
}

// newProposal is what a caller provides to submit a funding proposal.
type newProposal struct {
	ProjectID       uint64 `json:"projectId" validate:"required"`
	Description     string `json:"description" validate:"required"`
	RequestedAmount string `json:"requestedAmount" validate:"required"`
	Destination     string `json:"destination" validate:"required,eth_addr"`
	Passphrase      string `json:"passphrase" validate:"required"`
}

// claimRequest unlocks the caller's wallet for a claim.
type claimRequest struct {
	Passphrase string `json:"passphrase" validate:"required"`
}

// =============================================================================

// The response models give the API a stable JSON shape independent of the
// ledger record types.

type charity struct {
	ID          uint64 `json:"id"`
	Admin       string `json:"admin"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Verified    bool   `json:"verified"`
}

type project struct {
	ID          uint64 `json:"id"`
	CharityID   uint64 `json:"charityId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ContentRef  string `json:"contentRef"`
	Goal        string `json:"goal"`
	Active      bool   `json:"active"`
}

type proposal struct {
	ID              uint64 `json:"id"`
	ProjectID       uint64 `json:"projectId"`
	RequestedAmount string `json:"requestedAmount"`
	Destination     string `json:"destination"`
	Approved        bool   `json:"approved"`
	Claimed         bool   `json:"claimed"`
}

type donation struct {
	ID        uint64    `json:"id"`
	ProjectID uint64    `json:"projectId"`
	Donor     string    `json:"donor"`
	Amount    string    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type round struct {
	ID          uint64    `json:"id"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Pool        string    `json:"pool"`
	Distributed bool      `json:"distributed"`
}

type projectStats struct {
	ProjectID    uint64 `json:"projectId"`
	UniqueDonors uint64 `json:"uniqueDonors"`
	TotalDonated string `json:"totalDonated"`
}

func toCharity(c ledger.Charity) charity {
	return charity{
		ID:          c.ID,
		Admin:       c.Admin,
		Name:        c.Name,
		Description: c.Description,
		Verified:    c.Verified,
	}
}

func toProject(p ledger.Project) project {
	return project{
		ID:          p.ID,
		CharityID:   p.CharityID,
		Name:        p.Name,
		Description: p.Description,
		ContentRef:  p.ContentRef,
		Goal:        p.Goal,
		Active:      p.Active,
	}
}

func toProposal(p ledger.Proposal) proposal {
	return proposal{
		ID:              p.ID,
		ProjectID:       p.ProjectID,
		RequestedAmount: p.RequestedAmount,
		Destination:     p.Destination,
		Approved:        p.Approved,
		Claimed:         p.Claimed,
	}
}

func toDonation(d ledger.Donation) donation {
	return donation{
		ID:        d.ID,
		ProjectID: d.ProjectID,
		Donor:     d.Donor,
		Amount:    d.Amount,
		Timestamp: d.Timestamp,
	}
}

func toRound(r ledger.Round) round {
	return round{
		ID:          r.ID,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Pool:        r.Pool,
		Distributed: r.Distributed,
	}
}

// =============================================================================

func (r challengeRequest) Validate() error { return validate.Check(r) }
func (r loginRequest) Validate() error     { return validate.Check(r) }
func (r newCharity) Validate() error       { return validate.Check(r) }
func (r newProject) Validate() error       { return validate.Check(r) }
func (r newDonation) Validate() error      { return validate.Check(r) }
func (r newProposal) Validate() error      { return validate.Check(r) }
func (r claimRequest) Validate() error     { return validate.Check(r) }
