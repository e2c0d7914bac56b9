// Package signature provides support for signing and verifying messages
// using the Ethereum personal message scheme browser wallets implement.
package signature

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ethID is the recovery id offset wallets add to the V value when
// producing a personal message signature.
const ethID = 27

// =============================================================================

// Sign produces a personal message signature for the message using the
// specified private key. The signature is returned in the hex form wallets
// produce, with the recovery id in the last byte offset by 27.
func Sign(message string, privateKey *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(stamp(message), privateKey)
	if err != nil {
		return "", err
	}

	sig[crypto.RecoveryIDOffset] += ethID

	return hexutil.Encode(sig), nil
}

// Verify reports whether the signature was produced over the message by the
// key controlling the claimed address. The comparison is case insensitive
// since addresses are checksum cased inconsistently in the wild. Malformed
// input yields false, never an error.
func Verify(message string, signature string, address string) bool {
	signer, err := RecoverAddress(message, signature)
	if err != nil {
		return false
	}

	return strings.EqualFold(signer, address)
}

// RecoverAddress extracts the address for the account that signed the
// message.
func RecoverAddress(message string, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("decoding signature: %w", err)
	}

	if len(sig) != crypto.SignatureLength {
		return "", errors.New("signature must be 65 bytes")
	}

	// Wallets report the recovery id offset by 27. Accept both forms so
	// signatures produced by crypto.Sign directly verify as well.
	cpy := make([]byte, crypto.SignatureLength)
	copy(cpy, sig)
	if cpy[crypto.RecoveryIDOffset] >= ethID {
		cpy[crypto.RecoveryIDOffset] -= ethID
	}

	publicKey, err := crypto.SigToPub(stamp(message), cpy)
	if err != nil {
		return "", fmt.Errorf("recovering public key: %w", err)
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the message with the
// Ethereum personal message prefix embedded into the final hash. Wallets
// apply this prefix so a signed message can never double as a transaction.
func stamp(message string) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	return crypto.Keccak256([]byte(prefix), []byte(message))
}
