package cards

import "errors"

// Stable error codes carried inside an Error-result. These are data states,
// not failures of the pipeline itself.
const (
	CodeDataUnavailable = "DataUnavailable"
	CodeUpstreamTimeout = "UpstreamTimeout"
)

// Sentinel errors that cross API boundaries.
var (
	// ErrUnknownCardType is returned for a card type absent from the
	// registry. Unlike data errors it is a request-level validation failure
	// and is surfaced to the caller.
	ErrUnknownCardType = errors.New("unknown card type")

	// ErrDataUnavailable is returned by transforms that cannot produce a
	// score from the rows they were given. The service converts it into an
	// Error-result, never a thrown failure.
	ErrDataUnavailable = errors.New("insufficient data for card")
)

// CardError is the error half of a CardResult. It is a first-class outcome:
// a wallet with no usable rows gets a CardError-carrying result, not a
// failed request.
type CardError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CardError) Error() string {
	return e.Code + ": " + e.Message
}
