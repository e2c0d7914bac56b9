package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/dermacoin/platform/foundation/ledger/currency"
	"github.com/ethereum/go-ethereum/common"
)

// RegisterCharity submits a charity registration, waits for it to be mined
// and returns the charity id the contract assigned. The id only exists in
// the registration event's indexed topic, so it is recovered from the
// receipt.
func (c *Client) RegisterCharity(ctx context.Context, sgn *Signer, name string, description string) (uint64, error) {
	receipt, err := c.transact(ctx, sgn, c.platform, "register charity", "registerCharity", name, description)
	if err != nil {
		return 0, err
	}

	events, err := c.DecodeEvents(receipt, "CharityRegistered")
	if err != nil {
		return 0, fmt.Errorf("register charity: %w", err)
	}
	if len(events) == 0 {
		return 0, errors.New("register charity: registration event missing from receipt")
	}

	return eventUint64(events[0], "charityId")
}

// CreateProject submits a project creation under an existing charity and
// returns the project id assigned by the contract. The contract enforces
// that the charity exists; this layer doesn't pre-validate.
func (c *Client) CreateProject(ctx context.Context, sgn *Signer, charityID uint64, name string, description string, contentRef string) (uint64, error) {
	receipt, err := c.transact(ctx, sgn, c.platform, "create project", "createProject", new(big.Int).SetUint64(charityID), name, description, contentRef)
	if err != nil {
		return 0, err
	}

	events, err := c.DecodeEvents(receipt, "ProjectCreated")
	if err != nil {
		return 0, fmt.Errorf("create project: %w", err)
	}
	if len(events) == 0 {
		return 0, errors.New("create project: creation event missing from receipt")
	}

	return eventUint64(events[0], "projectId")
}

// Donate moves tokens from the donor to the specified project. This is a
// two step sequence: the platform contract must first be approved to move
// the donor's tokens, and the donation must not be submitted until that
// approval is mined, since the contract checks the allowance state the
// approval creates. A failed approval is reported as ApprovalError and the
// donation is never submitted; a failed donation after a mined approval is
// reported as DonationError, leaving a reusable allowance behind. On
// success the donation's transaction hash is returned for record keeping.
func (c *Client) Donate(ctx context.Context, sgn *Signer, projectID uint64, amount string) (string, error) {
	units, err := currency.ToLedgerUnits(amount)
	if err != nil {
		return "", err
	}

	if _, err := c.transact(ctx, sgn, c.token, "approve donation", "approve", c.platformAddr, units); err != nil {
		return "", &ApprovalError{Err: err}
	}

	receipt, err := c.transact(ctx, sgn, c.platform, "donate", "donate", new(big.Int).SetUint64(projectID), units)
	if err != nil {
		return "", &DonationError{Err: err}
	}

	return receipt.TxHash.Hex(), nil
}

// SubmitProposal submits a funding proposal for a project and returns the
// proposal id assigned by the contract.
func (c *Client) SubmitProposal(ctx context.Context, sgn *Signer, projectID uint64, description string, requestedAmount string, destination string) (uint64, error) {
	units, err := currency.ToLedgerUnits(requestedAmount)
	if err != nil {
		return 0, err
	}

	receipt, err := c.transact(ctx, sgn, c.platform, "submit proposal", "submitProposal", new(big.Int).SetUint64(projectID), description, units, common.HexToAddress(destination))
	if err != nil {
		return 0, asPrecondition("submit proposal", err)
	}

	events, err := c.DecodeEvents(receipt, "ProposalSubmitted")
	if err != nil {
		return 0, fmt.Errorf("submit proposal: %w", err)
	}
	if len(events) == 0 {
		return 0, errors.New("submit proposal: submission event missing from receipt")
	}

	return eventUint64(events[0], "proposalId")
}

// ApproveProposal approves a submitted proposal. The contract rejects an
// approval of a proposal that is already approved.
func (c *Client) ApproveProposal(ctx context.Context, sgn *Signer, proposalID uint64) error {
	_, err := c.transact(ctx, sgn, c.platform, "approve proposal", "approveProposal", new(big.Int).SetUint64(proposalID))
	return asPrecondition("approve proposal", err)
}

// ClaimFunds claims the funds of an approved proposal to its destination
// address. The contract rejects a claim before approval or a second claim.
func (c *Client) ClaimFunds(ctx context.Context, sgn *Signer, proposalID uint64) error {
	_, err := c.transact(ctx, sgn, c.platform, "claim funds", "claimFunds", new(big.Int).SetUint64(proposalID))
	return asPrecondition("claim funds", err)
}

// DistributeRoundFunds distributes the current round's pooled funds across
// its active projects and returns one allocation per funded project,
// decoded from the emitted allocation events. A round with no eligible
// project produces an empty result, not an error.
func (c *Client) DistributeRoundFunds(ctx context.Context, sgn *Signer) ([]Allocation, error) {
	receipt, err := c.transact(ctx, sgn, c.platform, "distribute round funds", "distributeRoundFunds")
	if err != nil {
		return nil, err
	}

	events, err := c.DecodeEvents(receipt, "FundsAllocated")
	if err != nil {
		return nil, fmt.Errorf("distribute round funds: %w", err)
	}

	allocations := make([]Allocation, 0, len(events))
	for _, ev := range events {
		roundID, err := eventUint64(ev, "roundId")
		if err != nil {
			return nil, fmt.Errorf("distribute round funds: %w", err)
		}

		projectID, err := eventUint64(ev, "projectId")
		if err != nil {
			return nil, fmt.Errorf("distribute round funds: %w", err)
		}

		allocations = append(allocations, Allocation{
			RoundID:   roundID,
			ProjectID: projectID,
			Amount:    currency.FromLedgerUnits(eventBig(ev, "amount")),
		})
	}

	return allocations, nil
}

// VerifyCharity marks a charity's verified flag. The contract itself
// enforces that the signer is the platform administrator.
func (c *Client) VerifyCharity(ctx context.Context, sgn *Signer, charityID uint64, verified bool) error {
	_, err := c.transact(ctx, sgn, c.platform, "verify charity", "verifyCharity", new(big.Int).SetUint64(charityID), verified)
	return err
}

// SetFeeWallet changes the wallet the platform fee accrues to. The contract
// itself enforces that the signer is the platform administrator.
func (c *Client) SetFeeWallet(ctx context.Context, sgn *Signer, wallet string) error {
	_, err := c.transact(ctx, sgn, c.platform, "set fee wallet", "setFeeWallet", common.HexToAddress(wallet))
	return err
}

// =============================================================================

// asPrecondition reclassifies a revert on a proposal state transition as a
// precondition violation, keeping the contract's revert reason.
func asPrecondition(op string, err error) error {
	if err == nil {
		return nil
	}

	var re *RevertError
	if errors.As(err, &re) {
		return &PreconditionError{Op: op, Reason: re.Reason, Err: re}
	}

	return err
}
