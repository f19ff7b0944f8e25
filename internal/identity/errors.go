package identity

import "fmt"

// Sign-in error codes. They are shown to the reader as-is and never retried.
const (
	CodePopupBlocked       = "popup-blocked"
	CodePopupClosed        = "popup-closed-by-user"
	CodeUnauthorizedDomain = "unauthorized-domain"
	CodeFailed             = "failed"
)

// SignInError is a failed sign-in attempt with a human-readable message.
type SignInError struct {
	Code  string
	Cause error
}

func (e *SignInError) Error() string {
	return e.Message()
}

func (e *SignInError) Unwrap() error {
	return e.Cause
}

// Message is the text displayed to the reader.
func (e *SignInError) Message() string {
	const prefix = "Failed to sign in. "
	switch e.Code {
	case CodePopupBlocked:
		return prefix + "Please allow popups for this site."
	case CodePopupClosed:
		return prefix + "Sign-in was cancelled."
	case CodeUnauthorizedDomain:
		return prefix + "This domain is not authorized for OAuth operations."
	}
	if e.Cause != nil {
		return fmt.Sprintf("%sError: %s", prefix, e.Cause.Error())
	}
	return prefix + "Error: unknown error"
}

// NewSignInError builds an error with the given code and optional cause.
func NewSignInError(code string, cause error) *SignInError {
	return &SignInError{Code: code, Cause: cause}
}

// FromCallback maps the "error" query parameter of an OAuth 2.0 redirect
// (RFC 6749 section 4.1.2.1) onto a sign-in error code.
func FromCallback(errParam, description string) *SignInError {
	var cause error
	if description != "" {
		cause = fmt.Errorf("%s: %s", errParam, description)
	} else {
		cause = fmt.Errorf("%s", errParam)
	}

	switch errParam {
	case "access_denied":
		return NewSignInError(CodePopupClosed, cause)
	case "unauthorized_client", "redirect_uri_mismatch":
		return NewSignInError(CodeUnauthorizedDomain, cause)
	}
	return NewSignInError(CodeFailed, cause)
}
