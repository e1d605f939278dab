// Package classifier wraps the externally trained tree-ensemble classifier
// service behind its inference contract.
package classifier

import "errors"

var (
	// ErrServiceUnavailable indicates the classifier service is unreachable
	ErrServiceUnavailable = errors.New("classifier service unavailable")

	// ErrInvalidPrediction indicates the prediction response is invalid
	ErrInvalidPrediction = errors.New("invalid prediction response")

	// ErrSchemaMismatch indicates the supplied feature vector does not
	// match the classifier's declared input shape
	ErrSchemaMismatch = errors.New("feature vector does not match classifier schema")

	// ErrConnectionFailed indicates the HTTP request could not be made
	ErrConnectionFailed = errors.New("classifier connection failed")

	// ErrInvalidResponse indicates an unparseable response from the classifier service
	ErrInvalidResponse = errors.New("invalid response from classifier service")
)
