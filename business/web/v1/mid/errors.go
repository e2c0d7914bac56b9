package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/dermacoin/platform/business/sys/validate"
	v1 "github.com/dermacoin/platform/business/web/v1"
	"github.com/dermacoin/platform/foundation/ledger"
	"github.com/dermacoin/platform/foundation/ledger/currency"
	"github.com/dermacoin/platform/foundation/web"
	"go.uber.org/zap"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform way.
// Unexpected errors (status >= 500) are logged.
func Errors(log *zap.SugaredLogger) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// If the context is missing this value, request the service
			// to be shutdown gracefully.
			v, err := web.GetValues(ctx)
			if err != nil {
				return web.NewShutdownError("web value missing from context")
			}

			// Run the next handler and catch any propagated error.
			if err := handler(ctx, w, r); err != nil {

				// Log the error.
				log.Errorw("ERROR", "traceid", v.TraceID, "message", err)

				// Build out the error response.
				er, status := errorResponse(err)

				// Respond with the error back to the client.
				if err := web.Respond(ctx, w, er, status); err != nil {
					return err
				}

				// If we receive the shutdown err we need to return it
				// back to the base handler to shutdown the service.
				if web.IsShutdown(err) {
					return err
				}
			}

			// The error has been handled so we can stop propagating it.
			return nil
		}

		return h
	}

	return m
}

// errorResponse maps an error coming out of a handler to the response and
// status the client should see. The ledger error taxonomy maps onto HTTP
// statuses here, in the one layer that owns user facing responses.
func errorResponse(err error) (v1.ErrorResponse, int) {
	switch {
	case validate.IsFieldErrors(err):
		fieldErrors := validate.GetFieldErrors(err)
		return v1.ErrorResponse{
			Error:  "data validation error",
			Fields: fieldErrors.Fields(),
		}, http.StatusBadRequest

	case v1.IsRequestError(err):
		reqErr := v1.GetRequestError(err)
		return v1.ErrorResponse{Error: reqErr.Error()}, reqErr.Status
	}

	var qe *ledger.QueryError
	if errors.As(err, &qe) {
		if qe.Kind == ledger.KindNotFound {
			return v1.ErrorResponse{Error: "not found on the ledger"}, http.StatusNotFound
		}
		return v1.ErrorResponse{Error: "ledger node unreachable"}, http.StatusBadGateway
	}

	var pe *ledger.PreconditionError
	if errors.As(err, &pe) {
		return v1.ErrorResponse{Error: pe.Error()}, http.StatusConflict
	}

	// The donation phase errors wrap the revert that caused them, so they
	// must be matched before the bare revert check or the phase is lost.
	var ae *ledger.ApprovalError
	if errors.As(err, &ae) {
		return v1.ErrorResponse{Error: ae.Error()}, http.StatusUnprocessableEntity
	}

	var de *ledger.DonationError
	if errors.As(err, &de) {
		return v1.ErrorResponse{Error: de.Error()}, http.StatusUnprocessableEntity
	}

	var re *ledger.RevertError
	if errors.As(err, &re) {
		return v1.ErrorResponse{Error: re.Error()}, http.StatusUnprocessableEntity
	}

	switch {
	case errors.Is(err, currency.ErrInvalidAmount):
		return v1.ErrorResponse{Error: currency.ErrInvalidAmount.Error()}, http.StatusBadRequest

	case errors.Is(err, ledger.ErrWalletUnavailable):
		return v1.ErrorResponse{Error: ledger.ErrWalletUnavailable.Error()}, http.StatusConflict

	case errors.Is(err, ledger.ErrUserRejected):
		return v1.ErrorResponse{Error: ledger.ErrUserRejected.Error()}, http.StatusUnauthorized
	}

	return v1.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError
}
