// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/dermacoin/platform/app/services/platform/handlers/v1/private"
	"github.com/dermacoin/platform/app/services/platform/handlers/v1/public"
	"github.com/dermacoin/platform/business/data/mirror"
	"github.com/dermacoin/platform/business/web/auth"
	"github.com/dermacoin/platform/business/web/v1/mid"
	"github.com/dermacoin/platform/foundation/events"
	"github.com/dermacoin/platform/foundation/ledger"
	"github.com/dermacoin/platform/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log             *zap.SugaredLogger
	Ledger          *ledger.Client
	Mirror          *mirror.Store
	Auth            *auth.Auth
	Evts            *events.Feed
	Keystore        string
	AdminKeystore   string
	AdminPassphrase string
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:      cfg.Log,
		Ledger:   cfg.Ledger,
		Mirror:   cfg.Mirror,
		Auth:     cfg.Auth,
		Evts:     cfg.Evts,
		Keystore: cfg.Keystore,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)

	app.Handle(http.MethodGet, version, "/charities/:id", pbl.Charity)
	app.Handle(http.MethodGet, version, "/charities/:id/projects", pbl.CharityProjects)
	app.Handle(http.MethodGet, version, "/projects/:id", pbl.Project)
	app.Handle(http.MethodGet, version, "/projects/:id/proposals", pbl.ProjectProposals)
	app.Handle(http.MethodGet, version, "/projects/:id/donations", pbl.ProjectDonations)
	app.Handle(http.MethodGet, version, "/projects/:id/balance", pbl.ProjectBalance)
	app.Handle(http.MethodGet, version, "/proposals/:id", pbl.Proposal)
	app.Handle(http.MethodGet, version, "/rounds/current", pbl.CurrentRound)
	app.Handle(http.MethodGet, version, "/rounds/current/stats", pbl.CurrentRoundStats)
	app.Handle(http.MethodGet, version, "/rounds/:id", pbl.Round)
	app.Handle(http.MethodGet, version, "/balances/:address", pbl.TokenBalance)

	app.Handle(http.MethodPost, version, "/auth/challenge", pbl.Challenge)
	app.Handle(http.MethodPost, version, "/auth/login", pbl.Login)

	authen := mid.Authenticate(cfg.Auth)
	app.Handle(http.MethodPost, version, "/charities", pbl.RegisterCharity, authen)
	app.Handle(http.MethodPost, version, "/projects", pbl.CreateProject, authen, mid.Authorize(auth.RoleCharity))
	app.Handle(http.MethodPost, version, "/donations", pbl.Donate, authen)
	app.Handle(http.MethodPost, version, "/proposals", pbl.SubmitProposal, authen, mid.Authorize(auth.RoleCharity))
	app.Handle(http.MethodPost, version, "/proposals/:id/claim", pbl.ClaimFunds, authen, mid.Authorize(auth.RoleCharity))
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:             cfg.Log,
		Ledger:          cfg.Ledger,
		Mirror:          cfg.Mirror,
		Evts:            cfg.Evts,
		AdminKeystore:   cfg.AdminKeystore,
		AdminPassphrase: cfg.AdminPassphrase,
	}

	app.Handle(http.MethodPost, version, "/admin/charities/:id/verify", prv.VerifyCharity)
	app.Handle(http.MethodPost, version, "/admin/proposals/:id/approve", prv.ApproveProposal)
	app.Handle(http.MethodPost, version, "/admin/rounds/distribute", prv.DistributeRoundFunds)
	app.Handle(http.MethodPost, version, "/admin/feewallet", prv.SetFeeWallet)
}
