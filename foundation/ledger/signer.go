package ledger

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is a capability for authorizing transactions on behalf of one
// address. A signer is acquired for the scope of a single operation and
// passed explicitly into every write. The fields are unexported so a signer
// can never be serialized or stored by accident.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// SignerFromKey derives a signer from a hex encoded private key. This is
// the path for operations the platform performs itself, like distributing
// round funds.
func SignerFromKey(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// SignerFromKeystore acquires a signer from an encrypted keystore wallet
// file. A missing file yields ErrWalletUnavailable and a failed decryption
// yields ErrUserRejected, so callers can distinguish no-wallet from a
// declined unlock.
func SignerFromKeystore(path string, passphrase string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keystore %q: %w", path, ErrWalletUnavailable)
	}

	key, err := keystore.DecryptKey(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("keystore %q: %w", path, ErrUserRejected)
	}

	return &Signer{
		key:     key.PrivateKey,
		address: crypto.PubkeyToAddress(key.PrivateKey.PublicKey),
	}, nil
}

// Address returns the address this signer authorizes transactions for.
func (s *Signer) Address() common.Address {
	return s.address
}
