package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/dermacoin/platform/foundation/ledger/currency"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

var (
	tokenAddr    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	platformAddr = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

// =============================================================================
// Mock support

// journal records the cross contract call order.
type journal struct {
	entries []string
}

// mockReceipts hands back receipts for mined transactions.
type mockReceipts struct {
	receipts map[common.Hash]*types.Receipt
}

func (mr *mockReceipts) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, exists := mr.receipts[txHash]
	if !exists {
		return nil, errors.New("unknown transaction")
	}
	return receipt, nil
}

// mockContract stands in for a bound contract.
type mockContract struct {
	name     string
	jrn      *journal
	rcs      *mockReceipts
	callOut  map[string][]interface{}
	callErr  map[string]error
	tranErr  map[string]error
	tranLogs map[string][]*types.Log
	nonce    uint64
}

func (mc *mockContract) Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error {
	mc.record(method, params)

	if err := mc.callErr[method]; err != nil {
		return err
	}

	*results = append(*results, mc.callOut[method]...)
	return nil
}

func (mc *mockContract) Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error) {
	mc.record(method, params)

	if err := mc.tranErr[method]; err != nil {
		return nil, err
	}

	mc.nonce++
	to := common.HexToAddress("0x3000000000000000000000000000000000000003")
	tx := types.NewTx(&types.LegacyTx{Nonce: mc.nonce, To: &to, Value: big.NewInt(0), Gas: 21000, GasPrice: big.NewInt(1)})

	mc.rcs.receipts[tx.Hash()] = &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(1),
		TxHash:      tx.Hash(),
		Logs:        mc.tranLogs[method],
	}

	return tx, nil
}

func (mc *mockContract) record(method string, params []interface{}) {
	args := make([]string, 0, len(params))
	for _, p := range params {
		args = append(args, fmt.Sprintf("%v", p))
	}
	mc.jrn.entries = append(mc.jrn.entries, fmt.Sprintf("%s.%s(%s)", mc.name, method, strings.Join(args, ",")))
}

func newMockContract(name string, jrn *journal, rcs *mockReceipts) *mockContract {
	return &mockContract{
		name:     name,
		jrn:      jrn,
		rcs:      rcs,
		callOut:  make(map[string][]interface{}),
		callErr:  make(map[string]error),
		tranErr:  make(map[string]error),
		tranLogs: make(map[string][]*types.Log),
	}
}

func newTestClient(t *testing.T, token *mockContract, platform *mockContract, rcs *mockReceipts) *Client {
	t.Helper()

	tokenABI, err := abi.JSON(strings.NewReader(dermaCoinJSON))
	if err != nil {
		t.Fatalf("Should be able to parse the token interface: %s", err)
	}

	platformABI, err := abi.JSON(strings.NewReader(charityPlatformJSON))
	if err != nil {
		t.Fatalf("Should be able to parse the platform interface: %s", err)
	}

	cfg := applyDefaults(Config{
		ChainID:      1337,
		ReadBackoff:  time.Millisecond,
		MineInterval: time.Millisecond,
	})

	return &Client{
		log:          zap.NewNop().Sugar(),
		cfg:          cfg,
		token:        token,
		platform:     platform,
		tokenABI:     tokenABI,
		platformABI:  platformABI,
		tokenAddr:    tokenAddr,
		platformAddr: platformAddr,
		receipts:     rcs,
	}
}

func newTestSigner(t *testing.T) *Signer {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	return &Signer{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

// eventLog builds a platform contract log for the named event with the
// given indexed topics and packed non-indexed data.
func eventLog(t *testing.T, c *Client, name string, topics []common.Hash, data []interface{}) *types.Log {
	t.Helper()

	event := c.platformABI.Events[name]

	packed, err := event.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		t.Fatalf("Should be able to pack %s data: %s", name, err)
	}

	return &types.Log{
		Address: platformAddr,
		Topics:  append([]common.Hash{event.ID}, topics...),
		Data:    packed,
	}
}

// =============================================================================

func Test_RegisterCreateDonate(t *testing.T) {
	jrn := journal{}
	rcs := mockReceipts{receipts: make(map[common.Hash]*types.Receipt)}
	token := newMockContract("token", &jrn, &rcs)
	platform := newMockContract("platform", &jrn, &rcs)
	c := newTestClient(t, token, platform, &rcs)
	sgn := newTestSigner(t)
	ctx := context.Background()

	platform.tranLogs["registerCharity"] = []*types.Log{
		eventLog(t, c, "CharityRegistered",
			[]common.Hash{common.BigToHash(big.NewInt(7)), common.BytesToHash(sgn.Address().Bytes())},
			[]interface{}{"Derma Relief"},
		),
	}
	platform.tranLogs["createProject"] = []*types.Log{
		eventLog(t, c, "ProjectCreated",
			[]common.Hash{common.BigToHash(big.NewInt(42)), common.BigToHash(big.NewInt(7))},
			[]interface{}{"Clinic Wing"},
		),
	}

	t.Log("Given the need to register, create a project and donate in sequence.")
	{
		charityID, err := c.RegisterCharity(ctx, sgn, "Derma Relief", "skin care charity")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to register a charity: %v", failed, err)
		}
		if charityID != 7 {
			t.Fatalf("\t%s\tShould decode charity id 7 from the event, got %d.", failed, charityID)
		}
		t.Logf("\t%s\tShould decode charity id 7 from the event.", success)

		projectID, err := c.CreateProject(ctx, sgn, charityID, "Clinic Wing", "new clinic wing", "bafyrefdoc")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create a project: %v", failed, err)
		}
		if projectID != 42 {
			t.Fatalf("\t%s\tShould decode project id 42 from the event, got %d.", failed, projectID)
		}
		t.Logf("\t%s\tShould decode project id 42 from the event.", success)

		txHash, err := c.Donate(ctx, sgn, projectID, "12.50")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to donate: %v", failed, err)
		}
		if txHash == "" {
			t.Fatalf("\t%s\tShould get the donation transaction hash back.", failed)
		}
		t.Logf("\t%s\tShould be able to donate and get the transaction hash.", success)

		exp := []string{
			"platform.registerCharity(Derma Relief,skin care charity)",
			"platform.createProject(7,Clinic Wing,new clinic wing,bafyrefdoc)",
			fmt.Sprintf("token.approve(%s,1250)", platformAddr),
			"platform.donate(42,1250)",
		}
		if len(jrn.entries) != len(exp) {
			t.Fatalf("\t%s\tShould issue %d calls, got %d: %v", failed, len(exp), len(jrn.entries), jrn.entries)
		}
		for i := range exp {
			if jrn.entries[i] != exp[i] {
				t.Logf("\t\tgot: %s", jrn.entries[i])
				t.Logf("\t\texp: %s", exp[i])
				t.Fatalf("\t%s\tShould issue the approval before the donation with amount 1250.", failed)
			}
		}
		t.Logf("\t%s\tShould issue the approval before the donation with amount 1250.", success)
	}
}

func Test_DonateApprovalFailure(t *testing.T) {
	jrn := journal{}
	rcs := mockReceipts{receipts: make(map[common.Hash]*types.Receipt)}
	token := newMockContract("token", &jrn, &rcs)
	platform := newMockContract("platform", &jrn, &rcs)
	c := newTestClient(t, token, platform, &rcs)
	sgn := newTestSigner(t)

	token.tranErr["approve"] = errors.New("execution reverted: approval rejected")

	t.Log("Given a token contract that rejects the approval.")
	{
		_, err := c.Donate(context.Background(), sgn, 42, "12.50")

		var ae *ApprovalError
		if !errors.As(err, &ae) {
			t.Fatalf("\t%s\tShould get an ApprovalError: %v", failed, err)
		}
		t.Logf("\t%s\tShould get an ApprovalError.", success)

		for _, entry := range jrn.entries {
			if strings.HasPrefix(entry, "platform.donate") {
				t.Fatalf("\t%s\tShould never submit the donation: %s", failed, entry)
			}
		}
		t.Logf("\t%s\tShould never submit the donation.", success)
	}
}

func Test_DonateFailureAfterApproval(t *testing.T) {
	jrn := journal{}
	rcs := mockReceipts{receipts: make(map[common.Hash]*types.Receipt)}
	token := newMockContract("token", &jrn, &rcs)
	platform := newMockContract("platform", &jrn, &rcs)
	c := newTestClient(t, token, platform, &rcs)
	sgn := newTestSigner(t)

	platform.tranErr["donate"] = errors.New("execution reverted: project not active")

	t.Log("Given a platform contract that rejects the donation after approval.")
	{
		_, err := c.Donate(context.Background(), sgn, 42, "12.50")

		var de *DonationError
		if !errors.As(err, &de) {
			t.Fatalf("\t%s\tShould get a DonationError: %v", failed, err)
		}
		t.Logf("\t%s\tShould get a DonationError distinct from an ApprovalError.", success)
	}
}

func Test_DonateInvalidAmount(t *testing.T) {
	jrn := journal{}
	rcs := mockReceipts{receipts: make(map[common.Hash]*types.Receipt)}
	token := newMockContract("token", &jrn, &rcs)
	platform := newMockContract("platform", &jrn, &rcs)
	c := newTestClient(t, token, platform, &rcs)
	sgn := newTestSigner(t)

	if _, err := c.Donate(context.Background(), sgn, 42, "-5"); !errors.Is(err, currency.ErrInvalidAmount) {
		t.Fatalf("Should get ErrInvalidAmount for a negative donation: %v", err)
	}

	if len(jrn.entries) != 0 {
		t.Fatalf("Should issue no contract calls for an invalid amount: %v", jrn.entries)
	}
}

func Test_DistributeRoundFunds(t *testing.T) {
	jrn := journal{}
	rcs := mockReceipts{receipts: make(map[common.Hash]*types.Receipt)}
	token := newMockContract("token", &jrn, &rcs)
	platform := newMockContract("platform", &jrn, &rcs)
	c := newTestClient(t, token, platform, &rcs)
	sgn := newTestSigner(t)
	ctx := context.Background()

	// A foreign contract log rides along in the receipt and must be skipped.
	foreign := &types.Log{
		Address: tokenAddr,
		Topics:  []common.Hash{common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")},
	}

	platform.tranLogs["distributeRoundFunds"] = []*types.Log{
		eventLog(t, c, "FundsAllocated",
			[]common.Hash{common.BigToHash(big.NewInt(3)), common.BigToHash(big.NewInt(42))},
			[]interface{}{big.NewInt(1000)},
		),
		foreign,
		eventLog(t, c, "FundsAllocated",
			[]common.Hash{common.BigToHash(big.NewInt(3)), common.BigToHash(big.NewInt(43))},
			[]interface{}{big.NewInt(250)},
		),
	}

	t.Log("Given the need to decode one allocation per emitted event.")
	{
		allocations, err := c.DistributeRoundFunds(ctx, sgn)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to distribute round funds: %v", failed, err)
		}

		exp := []Allocation{
			{RoundID: 3, ProjectID: 42, Amount: "10.00"},
			{RoundID: 3, ProjectID: 43, Amount: "2.50"},
		}
		if len(allocations) != len(exp) {
			t.Fatalf("\t%s\tShould decode %d allocations, got %d.", failed, len(exp), len(allocations))
		}
		for i := range exp {
			if allocations[i] != exp[i] {
				t.Logf("\t\tgot: %+v", allocations[i])
				t.Logf("\t\texp: %+v", exp[i])
				t.Fatalf("\t%s\tShould decode allocations in emission order.", failed)
			}
		}
		t.Logf("\t%s\tShould decode allocations in emission order, skipping foreign logs.", success)
	}

	t.Log("Given a distribution that funded no project.")
	{
		platform.tranLogs["distributeRoundFunds"] = nil

		allocations, err := c.DistributeRoundFunds(ctx, sgn)
		if err != nil {
			t.Fatalf("\t%s\tShould not fail on zero allocation events: %v", failed, err)
		}
		if len(allocations) != 0 {
			t.Fatalf("\t%s\tShould get an empty allocation list, got %d.", failed, len(allocations))
		}
		t.Logf("\t%s\tShould get an empty allocation list.", success)
	}
}

func Test_PreconditionViolation(t *testing.T) {
	jrn := journal{}
	rcs := mockReceipts{receipts: make(map[common.Hash]*types.Receipt)}
	token := newMockContract("token", &jrn, &rcs)
	platform := newMockContract("platform", &jrn, &rcs)
	c := newTestClient(t, token, platform, &rcs)
	sgn := newTestSigner(t)

	platform.tranErr["claimFunds"] = errors.New("execution reverted: proposal not approved")

	t.Log("Given a claim attempted before approval.")
	{
		err := c.ClaimFunds(context.Background(), sgn, 9)

		var pe *PreconditionError
		if !errors.As(err, &pe) {
			t.Fatalf("\t%s\tShould get a PreconditionError: %v", failed, err)
		}
		if pe.Reason != "proposal not approved" {
			t.Fatalf("\t%s\tShould carry the revert reason, got %q.", failed, pe.Reason)
		}
		t.Logf("\t%s\tShould get a PreconditionError carrying the revert reason.", success)
	}
}

func Test_ReadClassification(t *testing.T) {
	jrn := journal{}
	rcs := mockReceipts{receipts: make(map[common.Hash]*types.Receipt)}
	token := newMockContract("token", &jrn, &rcs)
	platform := newMockContract("platform", &jrn, &rcs)
	c := newTestClient(t, token, platform, &rcs)
	ctx := context.Background()

	t.Log("Given a charity id the contract reverts on.")
	{
		platform.callErr["charities"] = errors.New("execution reverted: charity does not exist")

		_, err := c.Charity(ctx, 404)

		var qe *QueryError
		if !errors.As(err, &qe) {
			t.Fatalf("\t%s\tShould get a QueryError: %v", failed, err)
		}
		if qe.Kind != KindNotFound {
			t.Fatalf("\t%s\tShould classify the failure as not found, got %s.", failed, qe.Kind)
		}
		t.Logf("\t%s\tShould classify the failure as not found.", success)
	}

	t.Log("Given a node that can't be reached.")
	{
		jrn.entries = nil
		platform.callErr["charities"] = errors.New("dial tcp: connection refused")

		_, err := c.Charity(ctx, 7)

		var qe *QueryError
		if !errors.As(err, &qe) {
			t.Fatalf("\t%s\tShould get a QueryError: %v", failed, err)
		}
		if qe.Kind != KindUnreachable {
			t.Fatalf("\t%s\tShould classify the failure as unreachable, got %s.", failed, qe.Kind)
		}
		t.Logf("\t%s\tShould classify the failure as unreachable.", success)

		if len(jrn.entries) != c.cfg.ReadAttempts {
			t.Fatalf("\t%s\tShould retry a bounded %d times, got %d.", failed, c.cfg.ReadAttempts, len(jrn.entries))
		}
		t.Logf("\t%s\tShould retry a bounded %d times.", success, c.cfg.ReadAttempts)
	}
}

func Test_Reads(t *testing.T) {
	jrn := journal{}
	rcs := mockReceipts{receipts: make(map[common.Hash]*types.Receipt)}
	token := newMockContract("token", &jrn, &rcs)
	platform := newMockContract("platform", &jrn, &rcs)
	c := newTestClient(t, token, platform, &rcs)
	ctx := context.Background()

	admin := common.HexToAddress("0x4000000000000000000000000000000000000004")

	platform.callOut["charities"] = []interface{}{admin, "Derma Relief", "skin care charity", true}
	platform.callOut["getCurrentRoundId"] = []interface{}{big.NewInt(3)}
	platform.callOut["getCurrentRoundProjectStats"] = []interface{}{
		[]*big.Int{big.NewInt(42), big.NewInt(43)},
		[]*big.Int{big.NewInt(12), big.NewInt(1)},
		[]*big.Int{big.NewInt(123456), big.NewInt(50)},
	}
	token.callOut["balanceOf"] = []interface{}{big.NewInt(1250)}

	t.Log("Given the need to read records from the ledger.")
	{
		charity, err := c.Charity(ctx, 7)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read a charity: %v", failed, err)
		}
		if !charity.Verified || charity.Name != "Derma Relief" || charity.Admin != admin.String() {
			t.Fatalf("\t%s\tShould map the charity record, got %+v.", failed, charity)
		}
		t.Logf("\t%s\tShould map the charity record.", success)

		roundID, err := c.CurrentRoundID(ctx)
		if err != nil || roundID != 3 {
			t.Fatalf("\t%s\tShould read current round id 3: %d %v", failed, roundID, err)
		}
		t.Logf("\t%s\tShould read current round id 3.", success)

		stats, err := c.CurrentRoundProjectStats(ctx)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read round stats: %v", failed, err)
		}
		exp := []ProjectStats{
			{ProjectID: 42, UniqueDonors: 12, TotalDonated: "1234.56"},
			{ProjectID: 43, UniqueDonors: 1, TotalDonated: "0.50"},
		}
		for i := range exp {
			if stats[i] != exp[i] {
				t.Logf("\t\tgot: %+v", stats[i])
				t.Logf("\t\texp: %+v", exp[i])
				t.Fatalf("\t%s\tShould map the stats in one aggregate call.", failed)
			}
		}
		t.Logf("\t%s\tShould map the stats in one aggregate call.", success)

		balance, err := c.TokenBalance(ctx, admin.String())
		if err != nil || balance != "12.50" {
			t.Fatalf("\t%s\tShould read token balance 12.50: %q %v", failed, balance, err)
		}
		t.Logf("\t%s\tShould read token balance 12.50.", success)
	}
}
