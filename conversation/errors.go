package conversation

import "errors"

var (
	// ErrMissingCredential is returned by New when no API key was given
	// and none is present in the environment.
	ErrMissingCredential = errors.New("API key must be provided either explicitly or through the " + CredentialEnv + " environment variable")

	// ErrEmptyResponse is returned by Exchange when the completion service
	// answered without usable content.
	ErrEmptyResponse = errors.New("completion service returned no content")
)
