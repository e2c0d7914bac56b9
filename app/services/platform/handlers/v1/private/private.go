// Package private maintains the group of handlers for administrative
// access. These routes are bound to the private host and authorize their
// writes with the platform operator's signer.
package private

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dermacoin/platform/business/data/mirror"
	"github.com/dermacoin/platform/business/sys/validate"
	v1 "github.com/dermacoin/platform/business/web/v1"
	"github.com/dermacoin/platform/foundation/events"
	"github.com/dermacoin/platform/foundation/ledger"
	"github.com/dermacoin/platform/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of administrative endpoints. The operator's
// signer is acquired from the keystore per operation and never held.
type Handlers struct {
	Log             *zap.SugaredLogger
	Ledger          *ledger.Client
	Mirror          *mirror.Store
	Evts            *events.Feed
	AdminKeystore   string
	AdminPassphrase string
}

// signer unlocks the operator's keystore wallet for a single operation.
func (h Handlers) signer() (*ledger.Signer, error) {
	return ledger.SignerFromKeystore(h.AdminKeystore, h.AdminPassphrase)
}

// verifyRequest sets a charity's verified flag.
type verifyRequest struct {
	Verified bool `json:"verified"`
}

// feeWalletRequest changes the wallet the platform fee accrues to.
type feeWalletRequest struct {
	Wallet string `json:"wallet" validate:"required,eth_addr"`
}

func (r feeWalletRequest) Validate() error { return validate.Check(r) }

// allocation is the JSON shape of one project's share of a distribution.
type allocation struct {
	RoundID   uint64 `json:"roundId"`
	ProjectID uint64 `json:"projectId"`
	Amount    string `json:"amount"`
}

// VerifyCharity marks a charity's verified flag on the ledger.
func (h Handlers) VerifyCharity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	charityID, err := pathID(r)
	if err != nil {
		return err
	}

	var req verifyRequest
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	sgn, err := h.signer()
	if err != nil {
		return err
	}

	if err := h.Ledger.VerifyCharity(ctx, sgn, charityID, req.Verified); err != nil {
		return err
	}

	if err := h.Mirror.SetCharityVerified(ctx, charityID, req.Verified); err != nil {
		h.Log.Errorw("mirror verify", "traceid", v.TraceID, "charityid", charityID, "ERROR", err)
	}

	h.Evts.Send("charity_verified", struct {
		CharityID uint64 `json:"charityId"`
		Verified  bool   `json:"verified"`
	}{charityID, req.Verified})

	resp := struct {
		CharityID uint64 `json:"charityId"`
		Verified  bool   `json:"verified"`
	}{
		CharityID: charityID,
		Verified:  req.Verified,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ApproveProposal approves a submitted funding proposal.
func (h Handlers) ApproveProposal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	proposalID, err := pathID(r)
	if err != nil {
		return err
	}

	sgn, err := h.signer()
	if err != nil {
		return err
	}

	if err := h.Ledger.ApproveProposal(ctx, sgn, proposalID); err != nil {
		return err
	}

	if err := h.Mirror.SetProposalApproved(ctx, proposalID); err != nil {
		h.Log.Errorw("mirror approve", "traceid", v.TraceID, "proposalid", proposalID, "ERROR", err)
	}

	h.Evts.Send("proposal_approved", struct {
		ProposalID uint64 `json:"proposalId"`
	}{proposalID})

	resp := struct {
		ProposalID uint64 `json:"proposalId"`
		Approved   bool   `json:"approved"`
	}{
		ProposalID: proposalID,
		Approved:   true,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// DistributeRoundFunds closes the current round and distributes its pooled
// funds across the active projects.
func (h Handlers) DistributeRoundFunds(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	sgn, err := h.signer()
	if err != nil {
		return err
	}

	allocations, err := h.Ledger.DistributeRoundFunds(ctx, sgn)
	if err != nil {
		return err
	}

	if err := h.Mirror.SaveAllocations(ctx, allocations); err != nil {
		h.Log.Errorw("mirror allocations", "traceid", v.TraceID, "ERROR", err)
	}

	alcs := make([]allocation, 0, len(allocations))
	for _, alc := range allocations {
		a := allocation{
			RoundID:   alc.RoundID,
			ProjectID: alc.ProjectID,
			Amount:    alc.Amount,
		}
		alcs = append(alcs, a)

		h.Evts.Send("funds_allocated", a)
	}

	resp := struct {
		Allocations []allocation `json:"allocations"`
	}{
		Allocations: alcs,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SetFeeWallet changes the wallet the platform fee accrues to.
func (h Handlers) SetFeeWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req feeWalletRequest
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	sgn, err := h.signer()
	if err != nil {
		return err
	}

	if err := h.Ledger.SetFeeWallet(ctx, sgn, req.Wallet); err != nil {
		return err
	}

	resp := struct {
		Wallet string `json:"wallet"`
	}{
		Wallet: req.Wallet,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// pathID parses the numeric id parameter from the request path.
func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return 0, v1.NewRequestError(fmt.Errorf("invalid id format [%s]", web.Param(r, "id")), http.StatusBadRequest)
	}

	return id, nil
}
