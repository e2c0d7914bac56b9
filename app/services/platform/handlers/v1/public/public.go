// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dermacoin/platform/business/data/mirror"
	"github.com/dermacoin/platform/business/web/auth"
	v1 "github.com/dermacoin/platform/business/web/v1"
	"github.com/dermacoin/platform/business/web/v1/mid"
	"github.com/dermacoin/platform/foundation/events"
	"github.com/dermacoin/platform/foundation/ledger"
	"github.com/dermacoin/platform/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public platform endpoints.
type Handlers struct {
	Log      *zap.SugaredLogger
	Ledger   *ledger.Client
	Mirror   *mirror.Store
	Auth     *auth.Auth
	Evts     *events.Feed
	WS       websocket.Upgrader
	Keystore string
}

// Events handles a web socket to provide notifications to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================
// Authentication

// Challenge issues a one time message for a wallet holder to sign.
func (h Handlers) Challenge(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req challengeRequest
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	resp := struct {
		Address string `json:"address"`
		Message string `json:"message"`
	}{
		Address: req.Address,
		Message: h.Auth.Challenge(req.Address),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Login exchanges a signed challenge for a bearer token.
func (h Handlers) Login(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	token, err := h.Auth.Login(req.Message, req.Signature, req.Address, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUnknownChallenge), errors.Is(err, auth.ErrBadSignature):
			return v1.NewRequestError(err, http.StatusUnauthorized)
		default:
			return fmt.Errorf("login: %w", err)
		}
	}

	resp := struct {
		Token string `json:"token"`
	}{
		Token: token,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================
// Reads

// Charity returns the charity record for the specified id.
func (h Handlers) Charity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	charityID, err := pathID(r)
	if err != nil {
		return err
	}

	charity, err := h.Ledger.Charity(ctx, charityID)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toCharity(charity), http.StatusOK)
}

// CharityProjects returns the project records owned by the specified charity.
func (h Handlers) CharityProjects(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	charityID, err := pathID(r)
	if err != nil {
		return err
	}

	ids, err := h.Ledger.CharityProjects(ctx, charityID)
	if err != nil {
		return err
	}

	projects := make([]project, 0, len(ids))
	for _, id := range ids {
		prj, err := h.Ledger.Project(ctx, id)
		if err != nil {
			return err
		}
		projects = append(projects, toProject(prj))
	}

	return web.Respond(ctx, w, projects, http.StatusOK)
}

// Project returns the project record for the specified id.
func (h Handlers) Project(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	projectID, err := pathID(r)
	if err != nil {
		return err
	}

	prj, err := h.Ledger.Project(ctx, projectID)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toProject(prj), http.StatusOK)
}

// ProjectProposals returns the proposal records attached to the specified
// project.
func (h Handlers) ProjectProposals(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	projectID, err := pathID(r)
	if err != nil {
		return err
	}

	ids, err := h.Ledger.ProjectProposals(ctx, projectID)
	if err != nil {
		return err
	}

	proposals := make([]proposal, 0, len(ids))
	for _, id := range ids {
		prp, err := h.Ledger.Proposal(ctx, id)
		if err != nil {
			return err
		}
		proposals = append(proposals, toProposal(prp))
	}

	return web.Respond(ctx, w, proposals, http.StatusOK)
}

// ProjectDonations returns the donation records recorded for the specified
// project.
func (h Handlers) ProjectDonations(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	projectID, err := pathID(r)
	if err != nil {
		return err
	}

	ids, err := h.Ledger.ProjectDonations(ctx, projectID)
	if err != nil {
		return err
	}

	donations := make([]donation, 0, len(ids))
	for _, id := range ids {
		don, err := h.Ledger.Donation(ctx, id)
		if err != nil {
			return err
		}
		donations = append(donations, toDonation(don))
	}

	return web.Respond(ctx, w, donations, http.StatusOK)
}

// ProjectBalance returns the ledger held balance for the specified project.
func (h Handlers) ProjectBalance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	projectID, err := pathID(r)
	if err != nil {
		return err
	}

	bal, err := h.Ledger.ProjectBalance(ctx, projectID)
	if err != nil {
		return err
	}

	resp := struct {
		ProjectID uint64 `json:"projectId"`
		Balance   string `json:"balance"`
		Wallet    string `json:"wallet"`
	}{
		ProjectID: bal.ProjectID,
		Balance:   bal.Balance,
		Wallet:    bal.Wallet,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Proposal returns the proposal record for the specified id.
func (h Handlers) Proposal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	proposalID, err := pathID(r)
	if err != nil {
		return err
	}

	prp, err := h.Ledger.Proposal(ctx, proposalID)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toProposal(prp), http.StatusOK)
}

// CurrentRound returns the funding round currently open.
func (h Handlers) CurrentRound(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	roundID, err := h.Ledger.CurrentRoundID(ctx)
	if err != nil {
		return err
	}

	rnd, err := h.Ledger.Round(ctx, roundID)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toRound(rnd), http.StatusOK)
}

// Round returns the funding round record for the specified id.
func (h Handlers) Round(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	roundID, err := pathID(r)
	if err != nil {
		return err
	}

	rnd, err := h.Ledger.Round(ctx, roundID)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toRound(rnd), http.StatusOK)
}

// CurrentRoundStats returns the per project donation statistics for the
// round currently open.
func (h Handlers) CurrentRoundStats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	roundID, err := h.Ledger.CurrentRoundID(ctx)
	if err != nil {
		return err
	}

	stats, err := h.Ledger.CurrentRoundProjectStats(ctx)
	if err != nil {
		return err
	}

	projects := make([]projectStats, 0, len(stats))
	for _, st := range stats {
		projects = append(projects, projectStats{
			ProjectID:    st.ProjectID,
			UniqueDonors: st.UniqueDonors,
			TotalDonated: st.TotalDonated,
		})
	}

	resp := struct {
		RoundID  uint64         `json:"roundId"`
		Projects []projectStats `json:"projects"`
	}{
		RoundID:  roundID,
		Projects: projects,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// TokenBalance returns the DermaCoin balance held by the specified address.
func (h Handlers) TokenBalance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	balance, err := h.Ledger.TokenBalance(ctx, address)
	if err != nil {
		return err
	}

	resp := struct {
		Address string `json:"address"`
		Balance string `json:"balance"`
	}{
		Address: address,
		Balance: balance,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================
// Writes

// RegisterCharity registers a new charity on the ledger for the
// authenticated wallet holder.
func (h Handlers) RegisterCharity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req newCharity
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	sgn, err := h.signer(ctx, req.Passphrase)
	if err != nil {
		return err
	}

	charityID, err := h.Ledger.RegisterCharity(ctx, sgn, req.Name, req.Description)
	if err != nil {
		return err
	}

	if err := h.Mirror.SaveCharity(ctx, charityID, req.Name, req.Description, sgn.Address().String()); err != nil {
		h.Log.Errorw("mirror charity", "traceid", v.TraceID, "charityid", charityID, "ERROR", err)
	}

	h.Evts.Send("charity_registered", struct {
		CharityID uint64 `json:"charityId"`
		Name      string `json:"name"`
	}{charityID, req.Name})

	resp := struct {
		CharityID uint64 `json:"charityId"`
	}{
		CharityID: charityID,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// CreateProject creates a new project under a charity the authenticated
// wallet holder administers.
func (h Handlers) CreateProject(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req newProject
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	sgn, err := h.signer(ctx, req.Passphrase)
	if err != nil {
		return err
	}

	projectID, err := h.Ledger.CreateProject(ctx, sgn, req.CharityID, req.Name, req.Description, req.ContentRef)
	if err != nil {
		return err
	}

	if err := h.Mirror.SaveProject(ctx, projectID, req.CharityID, req.Name, req.ContentRef); err != nil {
		h.Log.Errorw("mirror project", "traceid", v.TraceID, "projectid", projectID, "ERROR", err)
	}

	h.Evts.Send("project_created", struct {
		ProjectID uint64 `json:"projectId"`
		CharityID uint64 `json:"charityId"`
		Name      string `json:"name"`
	}{projectID, req.CharityID, req.Name})

	resp := struct {
		ProjectID uint64 `json:"projectId"`
	}{
		ProjectID: projectID,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Donate moves tokens from the authenticated wallet holder to a project.
func (h Handlers) Donate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req newDonation
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	sgn, err := h.signer(ctx, req.Passphrase)
	if err != nil {
		return err
	}

	txHash, err := h.Ledger.Donate(ctx, sgn, req.ProjectID, req.Amount)
	if err != nil {
		return err
	}

	if err := h.Mirror.SaveDonation(ctx, req.ProjectID, sgn.Address().String(), req.Amount, txHash); err != nil {
		h.Log.Errorw("mirror donation", "traceid", v.TraceID, "projectid", req.ProjectID, "ERROR", err)
	}

	h.Evts.Send("donation", struct {
		ProjectID uint64 `json:"projectId"`
		Donor     string `json:"donor"`
		Amount    string `json:"amount"`
	}{req.ProjectID, sgn.Address().String(), req.Amount})

	resp := struct {
		ProjectID uint64 `json:"projectId"`
		Tx        string `json:"tx"`
	}{
		ProjectID: req.ProjectID,
		Tx:        txHash,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// SubmitProposal submits a funding proposal for a project.
func (h Handlers) SubmitProposal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req newProposal
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	sgn, err := h.signer(ctx, req.Passphrase)
	if err != nil {
		return err
	}

	proposalID, err := h.Ledger.SubmitProposal(ctx, sgn, req.ProjectID, req.Description, req.RequestedAmount, req.Destination)
	if err != nil {
		return err
	}

	if err := h.Mirror.SaveProposal(ctx, proposalID, req.ProjectID, req.Description, req.RequestedAmount, req.Destination); err != nil {
		h.Log.Errorw("mirror proposal", "traceid", v.TraceID, "proposalid", proposalID, "ERROR", err)
	}

	resp := struct {
		ProposalID uint64 `json:"proposalId"`
	}{
		ProposalID: proposalID,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// ClaimFunds claims the funds of an approved proposal to its destination.
func (h Handlers) ClaimFunds(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	proposalID, err := pathID(r)
	if err != nil {
		return err
	}

	var req claimRequest
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	sgn, err := h.signer(ctx, req.Passphrase)
	if err != nil {
		return err
	}

	if err := h.Ledger.ClaimFunds(ctx, sgn, proposalID); err != nil {
		return err
	}

	if err := h.Mirror.SetProposalClaimed(ctx, proposalID); err != nil {
		h.Log.Errorw("mirror claim", "traceid", v.TraceID, "proposalid", proposalID, "ERROR", err)
	}

	h.Evts.Send("funds_claimed", struct {
		ProposalID uint64 `json:"proposalId"`
	}{proposalID})

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "funds claimed",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// signer unlocks the keystore wallet belonging to the authenticated caller.
// The wallet file is named after the address so one folder serves every
// account the platform custodies.
func (h Handlers) signer(ctx context.Context, passphrase string) (*ledger.Signer, error) {
	claims, err := mid.GetClaims(ctx)
	if err != nil {
		return nil, v1.NewRequestError(errors.New("not authenticated"), http.StatusUnauthorized)
	}

	path := filepath.Join(h.Keystore, strings.ToLower(claims.Address)+".json")
	return ledger.SignerFromKeystore(path, passphrase)
}

// pathID parses the numeric id parameter from the request path.
func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return 0, v1.NewRequestError(fmt.Errorf("invalid id format [%s]", web.Param(r, "id")), http.StatusBadRequest)
	}

	return id, nil
}
