package ledger

import (
	"context"
	"math/big"
	"time"

	"github.com/dermacoin/platform/foundation/ledger/currency"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Charity returns the charity record for the specified id.
func (c *Client) Charity(ctx context.Context, charityID uint64) (Charity, error) {
	var out []interface{}
	if err := c.call(ctx, c.platform, "charity", &out, "charities", new(big.Int).SetUint64(charityID)); err != nil {
		return Charity{}, err
	}

	charity := Charity{
		ID:          charityID,
		Admin:       convAddress(out[0]).String(),
		Name:        convString(out[1]),
		Description: convString(out[2]),
		Verified:    convBool(out[3]),
	}

	return charity, nil
}

// Project returns the project record for the specified id.
func (c *Client) Project(ctx context.Context, projectID uint64) (Project, error) {
	var out []interface{}
	if err := c.call(ctx, c.platform, "project", &out, "projects", new(big.Int).SetUint64(projectID)); err != nil {
		return Project{}, err
	}

	project := Project{
		ID:          projectID,
		CharityID:   convBig(out[0]).Uint64(),
		Name:        convString(out[1]),
		Description: convString(out[2]),
		ContentRef:  convString(out[3]),
		Goal:        currency.FromLedgerUnits(convBig(out[4])),
		Active:      convBool(out[5]),
	}

	return project, nil
}

// Proposal returns the proposal record for the specified id.
func (c *Client) Proposal(ctx context.Context, proposalID uint64) (Proposal, error) {
	var out []interface{}
	if err := c.call(ctx, c.platform, "proposal", &out, "proposals", new(big.Int).SetUint64(proposalID)); err != nil {
		return Proposal{}, err
	}

	proposal := Proposal{
		ID:              proposalID,
		ProjectID:       convBig(out[0]).Uint64(),
		RequestedAmount: currency.FromLedgerUnits(convBig(out[1])),
		Destination:     convAddress(out[2]).String(),
		Approved:        convBool(out[3]),
		Claimed:         convBool(out[4]),
	}

	return proposal, nil
}

// Donation returns the donation transaction record for the specified id.
func (c *Client) Donation(ctx context.Context, transactionID uint64) (Donation, error) {
	var out []interface{}
	if err := c.call(ctx, c.platform, "transaction", &out, "transactions", new(big.Int).SetUint64(transactionID)); err != nil {
		return Donation{}, err
	}

	donation := Donation{
		ID:        transactionID,
		ProjectID: convBig(out[0]).Uint64(),
		Donor:     convAddress(out[1]).String(),
		Amount:    currency.FromLedgerUnits(convBig(out[2])),
		Timestamp: time.Unix(convBig(out[3]).Int64(), 0).UTC(),
	}

	return donation, nil
}

// CurrentRoundID returns the id of the funding round currently open.
func (c *Client) CurrentRoundID(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := c.call(ctx, c.platform, "current round id", &out, "getCurrentRoundId"); err != nil {
		return 0, err
	}

	return convBig(out[0]).Uint64(), nil
}

// Round returns the funding round record for the specified id.
func (c *Client) Round(ctx context.Context, roundID uint64) (Round, error) {
	var out []interface{}
	if err := c.call(ctx, c.platform, "round", &out, "rounds", new(big.Int).SetUint64(roundID)); err != nil {
		return Round{}, err
	}

	round := Round{
		ID:          roundID,
		StartTime:   time.Unix(convBig(out[0]).Int64(), 0).UTC(),
		EndTime:     time.Unix(convBig(out[1]).Int64(), 0).UTC(),
		Pool:        currency.FromLedgerUnits(convBig(out[2])),
		Distributed: convBool(out[3]),
	}

	return round, nil
}

// ProjectBalance returns the ledger held balance and wallet address for the
// specified project.
func (c *Client) ProjectBalance(ctx context.Context, projectID uint64) (ProjectBalance, error) {
	var out []interface{}
	if err := c.call(ctx, c.platform, "project balance", &out, "getProjectBalance", new(big.Int).SetUint64(projectID)); err != nil {
		return ProjectBalance{}, err
	}

	balance := ProjectBalance{
		ProjectID: projectID,
		Balance:   currency.FromLedgerUnits(convBig(out[0])),
		Wallet:    convAddress(out[1]).String(),
	}

	return balance, nil
}

// CharityProjects returns the ids of the projects owned by the specified
// charity.
func (c *Client) CharityProjects(ctx context.Context, charityID uint64) ([]uint64, error) {
	return c.idList(ctx, "charity projects", "getCharityProjects", new(big.Int).SetUint64(charityID))
}

// ProjectProposals returns the ids of the proposals attached to the
// specified project.
func (c *Client) ProjectProposals(ctx context.Context, projectID uint64) ([]uint64, error) {
	return c.idList(ctx, "project proposals", "getProjectProposals", new(big.Int).SetUint64(projectID))
}

// ProjectDonations returns the ids of the donation transactions recorded
// for the specified project.
func (c *Client) ProjectDonations(ctx context.Context, projectID uint64) ([]uint64, error) {
	return c.idList(ctx, "project transactions", "getProjectTransactions", new(big.Int).SetUint64(projectID))
}

// TokenBalance returns the DermaCoin balance held by the specified address.
func (c *Client) TokenBalance(ctx context.Context, address string) (string, error) {
	var out []interface{}
	if err := c.call(ctx, c.token, "token balance", &out, "balanceOf", common.HexToAddress(address)); err != nil {
		return "", err
	}

	return currency.FromLedgerUnits(convBig(out[0])), nil
}

// CurrentRoundProjectStats returns, for every project active in the current
// round, its id, unique donor count and total donated amount. The contract
// aggregates this in one call so the client doesn't pay a round trip per
// project.
func (c *Client) CurrentRoundProjectStats(ctx context.Context) ([]ProjectStats, error) {
	var out []interface{}
	if err := c.call(ctx, c.platform, "current round project stats", &out, "getCurrentRoundProjectStats"); err != nil {
		return nil, err
	}

	ids := convBigSlice(out[0])
	donors := convBigSlice(out[1])
	amounts := convBigSlice(out[2])

	stats := make([]ProjectStats, 0, len(ids))
	for i, id := range ids {
		stats = append(stats, ProjectStats{
			ProjectID:    id.Uint64(),
			UniqueDonors: donors[i].Uint64(),
			TotalDonated: currency.FromLedgerUnits(amounts[i]),
		})
	}

	return stats, nil
}

// =============================================================================

// idList executes a read returning a single uint256 array of identifiers.
func (c *Client) idList(ctx context.Context, op string, method string, params ...interface{}) ([]uint64, error) {
	var out []interface{}
	if err := c.call(ctx, c.platform, op, &out, method, params...); err != nil {
		return nil, err
	}

	raw := convBigSlice(out[0])
	ids := make([]uint64, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, id.Uint64())
	}

	return ids, nil
}

// The conv functions narrow the generic values a contract call returns into
// their declared types, the same way generated bindings do.

func convBig(v interface{}) *big.Int {
	return abi.ConvertType(v, new(big.Int)).(*big.Int)
}

func convBigSlice(v interface{}) []*big.Int {
	return *abi.ConvertType(v, new([]*big.Int)).(*[]*big.Int)
}

func convAddress(v interface{}) common.Address {
	return *abi.ConvertType(v, new(common.Address)).(*common.Address)
}

func convString(v interface{}) string {
	return *abi.ConvertType(v, new(string)).(*string)
}

func convBool(v interface{}) bool {
	return *abi.ConvertType(v, new(bool)).(*bool)
}
