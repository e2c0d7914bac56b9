// Package ledger provides the client for reading and mutating the charity
// platform's on chain state. It wraps the DermaCoin token contract and the
// CharityPlatform contract behind one client whose configuration is injected
// at construction, so there is no lazily initialized global state and the
// contract bindings can be substituted in tests.
package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// The two contract interface definitions, compiled into the binary so a
// deployment only needs addresses and an endpoint.
var (
	//go:embed contracts/dermacoin.json
	dermaCoinJSON string

	//go:embed contracts/charityplatform.json
	charityPlatformJSON string
)

// Default policy values applied when the config leaves them zero.
const (
	defaultReadAttempts = 3
	defaultReadBackoff  = 250 * time.Millisecond
	defaultMineInterval = time.Second
	defaultMineTimeout  = 2 * time.Minute
)

// =============================================================================

// binding abstracts a bound contract so tests can substitute a mock for
// bind.BoundContract.
type binding interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
}

// receipts abstracts the receipt lookup the client polls while waiting for
// a transaction to be mined.
type receipts interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// =============================================================================

// Config represents the settings required to construct a client.
type Config struct {
	RPCURL           string
	TokenContract    string
	PlatformContract string
	ChainID          uint64

	// ReadAttempts bounds the retry of reads that fail because the node is
	// unreachable. Writes are never retried.
	ReadAttempts int
	ReadBackoff  time.Duration

	// MineInterval is how often the client polls for a receipt while
	// waiting for a submitted transaction to be mined.
	MineInterval time.Duration
	MineTimeout  time.Duration
}

// Client provides access to the charity platform contracts. The read only
// bindings are constructed once and never mutated; signers are bound per
// write call and never stored.
type Client struct {
	log          *zap.SugaredLogger
	cfg          Config
	token        binding
	platform     binding
	tokenABI     abi.ABI
	platformABI  abi.ABI
	tokenAddr    common.Address
	platformAddr common.Address
	receipts     receipts
}

// New constructs a client connected to the configured ledger node endpoint.
func New(cfg Config, log *zap.SugaredLogger) (*Client, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to ledger node %q: %w", cfg.RPCURL, err)
	}

	tokenABI, err := abi.JSON(strings.NewReader(dermaCoinJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing token contract interface: %w", err)
	}

	platformABI, err := abi.JSON(strings.NewReader(charityPlatformJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing platform contract interface: %w", err)
	}

	tokenAddr := common.HexToAddress(cfg.TokenContract)
	platformAddr := common.HexToAddress(cfg.PlatformContract)

	c := Client{
		log:          log,
		cfg:          applyDefaults(cfg),
		token:        bind.NewBoundContract(tokenAddr, tokenABI, client, client, client),
		platform:     bind.NewBoundContract(platformAddr, platformABI, client, client, client),
		tokenABI:     tokenABI,
		platformABI:  platformABI,
		tokenAddr:    tokenAddr,
		platformAddr: platformAddr,
		receipts:     client,
	}

	return &c, nil
}

// applyDefaults fills the zero valued policy settings.
func applyDefaults(cfg Config) Config {
	if cfg.ReadAttempts <= 0 {
		cfg.ReadAttempts = defaultReadAttempts
	}
	if cfg.ReadBackoff <= 0 {
		cfg.ReadBackoff = defaultReadBackoff
	}
	if cfg.MineInterval <= 0 {
		cfg.MineInterval = defaultMineInterval
	}
	if cfg.MineTimeout <= 0 {
		cfg.MineTimeout = defaultMineTimeout
	}
	return cfg
}

// =============================================================================

// call executes a read against a bound contract. Reverts classify as not
// found since the contracts signal a missing record by reverting. Network
// failures retry with backoff up to the configured attempt bound.
func (c *Client) call(ctx context.Context, b binding, op string, results *[]interface{}, method string, params ...interface{}) error {
	var err error

	for attempt := 1; ; attempt++ {
		*results = (*results)[:0]

		opts := bind.CallOpts{Context: ctx}
		if err = b.Call(&opts, results, method, params...); err == nil {
			return nil
		}

		if isReverted(err) {
			return &QueryError{Op: op, Kind: KindNotFound, Err: err}
		}

		if attempt == c.cfg.ReadAttempts {
			break
		}

		c.log.Infow("ledger read retry", "op", op, "attempt", attempt, "ERROR", err)

		select {
		case <-ctx.Done():
			return &QueryError{Op: op, Kind: KindUnreachable, Err: ctx.Err()}
		case <-time.After(time.Duration(attempt) * c.cfg.ReadBackoff):
		}
	}

	return &QueryError{Op: op, Kind: KindUnreachable, Err: err}
}

// transact binds the signer to the contract, submits the state change and
// waits for it to be mined. Writes are never retried here since a retried
// submission could double apply.
func (c *Client) transact(ctx context.Context, sgn *Signer, b binding, op string, method string, params ...interface{}) (*types.Receipt, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(sgn.key, chainID(c.cfg.ChainID))
	if err != nil {
		return nil, fmt.Errorf("%s: binding signer: %w", op, err)
	}
	opts.Context = ctx

	tx, err := b.Transact(opts, method, params...)
	if err != nil {
		if isReverted(err) {
			return nil, &RevertError{Op: op, Reason: revertReason(err), Err: err}
		}
		return nil, fmt.Errorf("%s: submitting transaction: %w", op, err)
	}

	receipt, err := c.waitMined(ctx, tx.Hash())
	if err != nil {
		return nil, fmt.Errorf("%s: waiting for mining: %w", op, err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return nil, &RevertError{Op: op, Err: errors.New("transaction reverted on chain")}
	}

	c.log.Infow("ledger write mined", "op", op, "tx", tx.Hash().Hex(), "block", receipt.BlockNumber)

	return receipt, nil
}

// waitMined polls for the transaction receipt until the transaction is
// included in a block or the timeout elapses. Callers never observe a
// submitted but unconfirmed state.
func (c *Client) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.MineTimeout)
	defer cancel()

	ticker := time.NewTicker(c.cfg.MineInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.receipts.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && receipt != nil:
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// =============================================================================

// isReverted reports whether the error represents a contract revert rather
// than a transport failure.
func isReverted(err error) bool {
	if err == nil {
		return false
	}

	var de rpc.DataError
	if errors.As(err, &de) {
		return true
	}

	return strings.Contains(err.Error(), "execution reverted")
}

// revertReason extracts the decoded revert reason when the node supplied
// revert data, falling back to whatever reason text rides on the message.
func revertReason(err error) string {
	var de rpc.DataError
	if errors.As(err, &de) {
		if data, ok := de.ErrorData().(string); ok {
			if raw, err := hexutil.Decode(data); err == nil {
				if reason, err := abi.UnpackRevert(raw); err == nil {
					return reason
				}
			}
		}
	}

	const marker = "execution reverted: "
	if msg := err.Error(); strings.Contains(msg, marker) {
		return msg[strings.Index(msg, marker)+len(marker):]
	}

	return ""
}

// chainID converts the configured chain id for the transactor binding.
func chainID(id uint64) *big.Int {
	return new(big.Int).SetUint64(id)
}
