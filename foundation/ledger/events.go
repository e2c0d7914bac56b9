package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
)

// Event represents one decoded platform contract event from a transaction
// receipt.
type Event struct {
	Name string
	Args map[string]interface{}
}

// DecodeEvents filters the receipt's logs down to the platform contract
// events with the specified name and decodes each one. Logs emitted by
// other contracts, or by other events of this contract, are matched on
// their signature topic and skipped rather than attempted and failed.
// Results follow log emission order.
func (c *Client) DecodeEvents(receipt *types.Receipt, name string) ([]Event, error) {
	event, exists := c.platformABI.Events[name]
	if !exists {
		return nil, fmt.Errorf("event %q is not part of the platform contract interface", name)
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}

	var events []Event
	for _, lg := range receipt.Logs {
		if lg.Address != c.platformAddr {
			continue
		}
		if len(lg.Topics) == 0 || lg.Topics[0] != event.ID {
			continue
		}

		args := make(map[string]interface{})

		if err := abi.ParseTopicsIntoMap(args, indexed, lg.Topics[1:]); err != nil {
			return nil, fmt.Errorf("decoding %s topics: %w", name, err)
		}

		if len(lg.Data) > 0 {
			if err := c.platformABI.UnpackIntoMap(args, name, lg.Data); err != nil {
				return nil, fmt.Errorf("decoding %s data: %w", name, err)
			}
		}

		events = append(events, Event{Name: name, Args: args})
	}

	return events, nil
}

// =============================================================================

// eventBig returns the named argument as a big integer, or nil when the
// argument is missing or differently typed.
func eventBig(ev Event, name string) *big.Int {
	v, ok := ev.Args[name].(*big.Int)
	if !ok {
		return nil
	}
	return v
}

// eventUint64 returns the named argument narrowed to a uint64.
func eventUint64(ev Event, name string) (uint64, error) {
	v := eventBig(ev, name)
	if v == nil {
		return 0, fmt.Errorf("event %s is missing argument %q", ev.Name, name)
	}
	return v.Uint64(), nil
}
