package constants

// Identity provider error codes
const (
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeNetworkError         = "NETWORK_ERROR"
	ErrCodeInvalidDataFormat    = "INVALID_DATA_FORMAT"
	ErrCodeResourceNotFound     = "RESOURCE_NOT_FOUND"
	ErrCodeResourceConflict     = "RESOURCE_CONFLICT"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeUnexpectedStatus     = "UNEXPECTED_STATUS"
)

var providerErrorMessages = map[string]string{
	ErrCodeAuthenticationFailed: "Identity provider rejected the service credentials",
	ErrCodeNetworkError:         "Could not reach the identity provider",
	ErrCodeInvalidDataFormat:    "Invalid data sent to the identity provider",
	ErrCodeResourceNotFound:     "User not found in the identity provider",
	ErrCodeResourceConflict:     "User already exists in the identity provider",
	ErrCodeRateLimited:          "Identity provider rate limit exceeded",
	ErrCodeUnexpectedStatus:     "Identity provider returned an unexpected status",
}

// GetErrorMessage returns the human readable message for a provider error code
func GetErrorMessage(code string) string {
	if msg, ok := providerErrorMessages[code]; ok {
		return msg
	}
	return "Unknown identity provider error"
}
