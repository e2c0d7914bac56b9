package mid

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dermacoin/platform/foundation/ledger"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_ErrorPhaseMapping(t *testing.T) {
	revert := &ledger.RevertError{
		Op:     "donate",
		Reason: "project not active",
		Err:    errors.New("execution reverted: project not active"),
	}

	t.Log("Given donation phase errors that wrap the revert that caused them.")
	{
		er, status := errorResponse(&ledger.ApprovalError{Err: revert})
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("\t%s\tShould map an approval failure to 422, got %d.", failed, status)
		}
		if !strings.HasPrefix(er.Error, "token approval failed") {
			t.Fatalf("\t%s\tShould keep the approval phase in the message, got %q.", failed, er.Error)
		}
		t.Logf("\t%s\tShould keep the approval phase in the message.", success)

		er, status = errorResponse(&ledger.DonationError{Err: revert})
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("\t%s\tShould map a donation failure to 422, got %d.", failed, status)
		}
		if !strings.HasPrefix(er.Error, "donation failed") {
			t.Fatalf("\t%s\tShould keep the donation phase in the message, got %q.", failed, er.Error)
		}
		t.Logf("\t%s\tShould keep the donation phase in the message.", success)

		er, status = errorResponse(revert)
		if status != http.StatusUnprocessableEntity || !strings.HasPrefix(er.Error, "donate reverted") {
			t.Fatalf("\t%s\tShould map a bare revert to 422 with its reason, got %d %q.", failed, status, er.Error)
		}
		t.Logf("\t%s\tShould map a bare revert to 422 with its reason.", success)

		pe := &ledger.PreconditionError{Op: "claim funds", Reason: "proposal not approved", Err: revert}
		if _, status = errorResponse(pe); status != http.StatusConflict {
			t.Fatalf("\t%s\tShould map a precondition violation to 409, got %d.", failed, status)
		}
		t.Logf("\t%s\tShould map a precondition violation to 409.", success)
	}
}
