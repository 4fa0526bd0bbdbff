package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *ScoutError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *ScoutError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// NetworkUnavailable creates a connectivity error for a failed request
func NetworkUnavailable(endpoint string, err error) *ScoutError {
	return Wrap(err, ErrCodeNetworkUnavailable,
		fmt.Sprintf("could not reach the service at %s - check your connection", endpoint)).
		WithDetail("endpoint", endpoint)
}

// RequestTimeout creates a timeout error, distinguishable from a network error
func RequestTimeout(endpoint string, timeout string) *ScoutError {
	return New(ErrCodeRequestTimeout,
		fmt.Sprintf("the service did not respond within %s - it may be overloaded", timeout)).
		WithDetail("endpoint", endpoint).
		WithDetail("timeout", timeout)
}

// RemoteStatus creates an error for a non-2xx response
func RemoteStatus(endpoint string, status int) *ScoutError {
	return New(ErrCodeRemoteStatus, fmt.Sprintf("service returned status %d", status)).
		WithDetail("endpoint", endpoint).
		WithDetail("status", status)
}

// ClassificationFailed creates an error for a response that matches no known shape
func ClassificationFailed(reason string) *ScoutError {
	return New(ErrCodeClassification, fmt.Sprintf("unrecognized service response: %s", reason))
}

// JobFailed creates an error for a job the remote reported as failed
func JobFailed(jobID, reason string) *ScoutError {
	if reason == "" {
		reason = "the service did not give a reason"
	}
	return New(ErrCodeRemoteFailure, fmt.Sprintf("document generation failed: %s", reason)).
		WithDetail("jobId", jobID)
}

// HardTimeout creates an error for a job that exceeded its wall-clock budget
func HardTimeout(jobID string, budget string) *ScoutError {
	return New(ErrCodeHardTimeout,
		fmt.Sprintf("document generation took longer than %s - please try again", budget)).
		WithDetail("jobId", jobID).
		WithDetail("budget", budget)
}

// ArtifactFetch creates an error for a failed artifact download
func ArtifactFetch(ref string, err error) *ScoutError {
	return Wrap(err, ErrCodeArtifactFetch, fmt.Sprintf("failed to download artifact %s", ref)).
		WithDetail("ref", ref)
}
