package btcspv

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	SPV_ERR_READ_OVERRUN                ErrorCode = "SPV_ERR_READ_OVERRUN"
	SPV_ERR_LARGE_VARINT                ErrorCode = "SPV_ERR_LARGE_VARINT"
	SPV_ERR_MALFORMATTED_OP_RETURN      ErrorCode = "SPV_ERR_MALFORMATTED_OP_RETURN"
	SPV_ERR_MALFORMATTED_WITNESS_OUTPUT ErrorCode = "SPV_ERR_MALFORMATTED_WITNESS_OUTPUT"
	SPV_ERR_MALFORMATTED_P2PKH_OUTPUT   ErrorCode = "SPV_ERR_MALFORMATTED_P2PKH_OUTPUT"
	SPV_ERR_MALFORMATTED_P2SH_OUTPUT    ErrorCode = "SPV_ERR_MALFORMATTED_P2SH_OUTPUT"
	SPV_ERR_MALFORMATTED_OUTPUT         ErrorCode = "SPV_ERR_MALFORMATTED_OUTPUT"

	SPV_ERR_WRONG_LENGTH_HEADER ErrorCode = "SPV_ERR_WRONG_LENGTH_HEADER"
	SPV_ERR_INSUFFICIENT_WORK   ErrorCode = "SPV_ERR_INSUFFICIENT_WORK"
	SPV_ERR_INVALID_CHAIN       ErrorCode = "SPV_ERR_INVALID_CHAIN"

	SPV_ERR_WRONG_DIGEST              ErrorCode = "SPV_ERR_WRONG_DIGEST"
	SPV_ERR_NON_MATCHING_DIGESTS      ErrorCode = "SPV_ERR_NON_MATCHING_DIGESTS"
	SPV_ERR_WRONG_MERKLE_ROOT         ErrorCode = "SPV_ERR_WRONG_MERKLE_ROOT"
	SPV_ERR_NON_MATCHING_MERKLE_ROOTS ErrorCode = "SPV_ERR_NON_MATCHING_MERKLE_ROOTS"
	SPV_ERR_WRONG_PREV_HASH           ErrorCode = "SPV_ERR_WRONG_PREV_HASH"
	SPV_ERR_NON_MATCHING_PREVHASHES   ErrorCode = "SPV_ERR_NON_MATCHING_PREVHASHES"

	SPV_ERR_INVALID_VIN      ErrorCode = "SPV_ERR_INVALID_VIN"
	SPV_ERR_INVALID_VOUT     ErrorCode = "SPV_ERR_INVALID_VOUT"
	SPV_ERR_WRONG_TX_ID      ErrorCode = "SPV_ERR_WRONG_TX_ID"
	SPV_ERR_BAD_MERKLE_PROOF ErrorCode = "SPV_ERR_BAD_MERKLE_PROOF"
)

// SPVError is returned by every parser and validator in this package. Msg
// is diagnostic only; callers must branch on Code.
type SPVError struct {
	Code ErrorCode
	Msg  string
}

func (e *SPVError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func spverr(code ErrorCode, msg string) error {
	return &SPVError{Code: code, Msg: msg}
}

// ErrorCodeOf unwraps err and reports the SPVError code, if any.
func ErrorCodeOf(err error) (ErrorCode, bool) {
	var se *SPVError
	if errors.As(err, &se) && se != nil {
		return se.Code, true
	}
	return "", false
}
