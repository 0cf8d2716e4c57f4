// Package orange implements the client for the Orange Sénégal SMS API,
// including token management, single and bulk sends, and error
// classification.
package orange

// Code classifies a failed send so callers can distinguish "the carrier said
// no" from "we don't know whether it went out".
type Code string

const (
	// CodeInvalidRecipient means the carrier rejected the destination address.
	CodeInvalidRecipient Code = "invalid_recipient"
	// CodeInsufficientBalance means the account has no SMS credit left.
	CodeInsufficientBalance Code = "insufficient_balance"
	// CodeExpiredContract means the API contract or bundle has expired.
	CodeExpiredContract Code = "expired_contract"
	// CodeGatewayTimeout means the gateway did not confirm delivery in time.
	// An unconfirmed send is always reported as a failure.
	CodeGatewayTimeout Code = "gateway_timeout"
	// CodeAuthFailed means the bearer token could not be obtained or was
	// rejected.
	CodeAuthFailed Code = "auth_failed"
	// CodeCarrierError covers any other structured or unstructured carrier
	// failure.
	CodeCarrierError Code = "carrier_error"
)

// errorBody mirrors the Orange API error envelope. Depending on the failure
// class the carrier fills either serviceException or policyException.
type errorBody struct {
	RequestError struct {
		ServiceException *apiException `json:"serviceException"`
		PolicyException  *apiException `json:"policyException"`
	} `json:"requestError"`
}

type apiException struct {
	MessageID string   `json:"messageId"`
	Text      string   `json:"text"`
	Variables []string `json:"variables"`
}

func (b *errorBody) exception() *apiException {
	if b.RequestError.ServiceException != nil {
		return b.RequestError.ServiceException
	}
	return b.RequestError.PolicyException
}
