package tokens

import (
	"errors"
	"strings"

	"github.com/anyswap/CrossChain-Settlement/rpc/gateway"
)

// PermanentFailureSignatures error texts that retrying can never fix.
// Matched case insensitively as substrings.
var PermanentFailureSignatures = []string{
	"wallet not configured",
	"invalid recipient address",
	"amount below minimum",
	"unsupported token",
	"invalid transfer amount",
}

// PermanentFailureCodes structured codes equivalent to the signatures
var PermanentFailureCodes = map[string]struct{}{
	"WALLET_NOT_CONFIGURED": {},
	"INVALID_RECIPIENT":     {},
	"AMOUNT_BELOW_MINIMUM":  {},
	"UNSUPPORTED_TOKEN":     {},
	"INVALID_AMOUNT":        {},
}

// MatchPermanentSignature returns the matched signature or empty string
func MatchPermanentSignature(msg string) string {
	lower := strings.ToLower(msg)
	for _, sig := range PermanentFailureSignatures {
		if strings.Contains(lower, sig) {
			return sig
		}
	}
	return ""
}

// IsPermanentCode is structured permanent failure code
func IsPermanentCode(code string) bool {
	_, exist := PermanentFailureCodes[strings.ToUpper(code)]
	return exist
}

// Classify decide the failure kind of err.
// Structured failures are checked first, then the error text against the
// permanent signatures, then gateway errors which are transport failures.
// Anything else is a business failure.
func Classify(err error) FailureKind {
	if err == nil {
		return KindNone
	}
	var failure *Failure
	if errors.As(err, &failure) {
		switch {
		case failure.Kind == KindPermanent, failure.Kind == KindExhausted:
			return failure.Kind
		case IsPermanentCode(failure.Code):
			return KindPermanent
		}
	}
	if MatchPermanentSignature(err.Error()) != "" {
		return KindPermanent
	}
	if failure != nil && failure.Kind != KindNone {
		return failure.Kind
	}
	if gateway.IsRPCError(err) {
		return KindTransport
	}
	return KindBusiness
}

// IsPermanent is permanent failure
func IsPermanent(err error) bool {
	return Classify(err) == KindPermanent
}
