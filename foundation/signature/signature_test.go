package signature_test

import (
	"testing"

	"github.com/dermacoin/platform/foundation/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from     = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_SignVerify(t *testing.T) {
	message := "login challenge 42"

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	sig, err := signature.Sign(message, pk)
	if err != nil {
		t.Fatalf("Should be able to sign the message: %s", err)
	}

	if !signature.Verify(message, sig, from) {
		t.Fatal("Should be able to verify the signature against the signing address.")
	}

	addr, err := signature.RecoverAddress(message, sig)
	if err != nil {
		t.Fatalf("Should be able to recover the signing address: %s", err)
	}

	if addr != from {
		t.Logf("got: %s", addr)
		t.Logf("exp: %s", from)
		t.Fatal("Should recover the right address.")
	}
}

func Test_VerifyCaseInsensitive(t *testing.T) {
	message := "login challenge 42"

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	sig, err := signature.Sign(message, pk)
	if err != nil {
		t.Fatalf("Should be able to sign the message: %s", err)
	}

	if !signature.Verify(message, sig, "0xDD6B972FFCC631A62CAE1BB9D80B7FF429C8EBA4") {
		t.Fatal("Should accept an upper cased form of the address.")
	}
}

func Test_VerifyRejections(t *testing.T) {
	message := "login challenge 42"

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	sig, err := signature.Sign(message, pk)
	if err != nil {
		t.Fatalf("Should be able to sign the message: %s", err)
	}

	if signature.Verify("a different message", sig, from) {
		t.Fatal("Should reject a signature over a different message.")
	}

	otherPK, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	otherSig, err := signature.Sign(message, otherPK)
	if err != nil {
		t.Fatalf("Should be able to sign the message: %s", err)
	}

	if signature.Verify(message, otherSig, from) {
		t.Fatal("Should reject a signature produced by a different key.")
	}
}

func Test_VerifyMalformed(t *testing.T) {
	type table struct {
		name string
		sig  string
	}

	tt := []table{
		{name: "empty", sig: ""},
		{name: "not_hex", sig: "0xzz"},
		{name: "no_prefix", sig: "deadbeef"},
		{name: "short", sig: "0xdeadbeef"},
	}

	for _, tst := range tt {
		if signature.Verify("any message", tst.sig, from) {
			t.Fatalf("Should return false for malformed signature %q.", tst.name)
		}
	}
}
