package auth_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/dermacoin/platform/business/web/auth"
	"github.com/dermacoin/platform/foundation/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_ChallengeLogin(t *testing.T) {
	a, err := auth.New(auth.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("Should be able to construct auth: %v", err)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %v", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey).String()

	t.Log("Given the need to exchange a signed challenge for a token.")
	{
		message := a.Challenge(address)
		if message == "" {
			t.Fatalf("\t%s\tShould be issued a challenge message.", failed)
		}
		t.Logf("\t%s\tShould be issued a challenge message.", success)

		sig, err := signature.Sign(message, key)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the challenge: %v", failed, err)
		}

		token, err := a.Login(message, sig, address, auth.RoleDonor)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to login with the signed challenge: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to login with the signed challenge.", success)

		claims, err := a.ValidateToken(token)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to validate the issued token: %v", failed, err)
		}
		if claims.Address != address || claims.Role != auth.RoleDonor {
			t.Fatalf("\t%s\tShould carry the address and role in the claims, got %q %q.", failed, claims.Address, claims.Role)
		}
		t.Logf("\t%s\tShould carry the address and role in the claims.", success)

		if _, err := a.Login(message, sig, address, auth.RoleDonor); !errors.Is(err, auth.ErrUnknownChallenge) {
			t.Fatalf("\t%s\tShould not accept a replayed challenge: %v", failed, err)
		}
		t.Logf("\t%s\tShould not accept a replayed challenge.", success)
	}
}

func Test_BadSignature(t *testing.T) {
	a, err := auth.New(auth.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("Should be able to construct auth: %v", err)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %v", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey).String()

	otherKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a second private key: %v", err)
	}

	t.Log("Given a challenge signed by a different key.")
	{
		message := a.Challenge(address)

		sig, err := signature.Sign(message, otherKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the challenge: %v", failed, err)
		}

		if _, err := a.Login(message, sig, address, auth.RoleDonor); !errors.Is(err, auth.ErrBadSignature) {
			t.Fatalf("\t%s\tShould reject the login with ErrBadSignature: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject the login with ErrBadSignature.", success)
	}
}

func Test_ForeignChallenge(t *testing.T) {
	a, err := auth.New(auth.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("Should be able to construct auth: %v", err)
	}

	victimKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %v", err)
	}
	victim := crypto.PubkeyToAddress(victimKey.PublicKey).String()

	attackerKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a second private key: %v", err)
	}
	attacker := crypto.PubkeyToAddress(attackerKey.PublicKey).String()

	t.Log("Given a challenge issued to one address and presented by another.")
	{
		message := a.Challenge(victim)

		sig, err := signature.Sign(message, attackerKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the challenge: %v", failed, err)
		}

		if _, err := a.Login(message, sig, attacker, auth.RoleDonor); !errors.Is(err, auth.ErrUnknownChallenge) {
			t.Fatalf("\t%s\tShould reject a challenge issued for a different address: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a challenge issued for a different address.", success)

		sig, err = signature.Sign(message, victimKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the challenge: %v", failed, err)
		}

		if _, err := a.Login(message, sig, victim, auth.RoleDonor); !errors.Is(err, auth.ErrUnknownChallenge) {
			t.Fatalf("\t%s\tShould have consumed the challenge on the failed attempt: %v", failed, err)
		}
		t.Logf("\t%s\tShould have consumed the challenge on the failed attempt.", success)
	}
}

func Test_ChallengeCaseInsensitive(t *testing.T) {
	a, err := auth.New(auth.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("Should be able to construct auth: %v", err)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %v", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey).String()

	t.Log("Given a login whose address differs from the challenge only in case.")
	{
		message := a.Challenge(strings.ToLower(address))

		sig, err := signature.Sign(message, key)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the challenge: %v", failed, err)
		}

		if _, err := a.Login(message, sig, address, auth.RoleDonor); err != nil {
			t.Fatalf("\t%s\tShould accept the checksummed form of the address: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept the checksummed form of the address.", success)
	}
}

func Test_InvalidToken(t *testing.T) {
	a, err := auth.New(auth.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("Should be able to construct auth: %v", err)
	}

	if _, err := a.ValidateToken("not-a-token"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("Should reject a malformed token with ErrInvalidToken: %v", err)
	}
}
