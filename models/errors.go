package models

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// GatewayErrorKind names why the gateway produced no pods.
type GatewayErrorKind int

const (
	ErrKindUnknown GatewayErrorKind = iota
	ErrKindConfigMissing
	ErrKindURLMalformed
	ErrKindUnsupportedScheme
	ErrKindInvalidPort
	ErrKindNetwork
	ErrKindTimeout
	ErrKindHTTP
	ErrKindMalformedResponse
	ErrKindRPC
)

func (k GatewayErrorKind) String() string {
	switch k {
	case ErrKindConfigMissing:
		return "ConfigMissing"
	case ErrKindURLMalformed:
		return "UrlMalformed"
	case ErrKindUnsupportedScheme:
		return "UnsupportedScheme"
	case ErrKindInvalidPort:
		return "InvalidPort"
	case ErrKindNetwork:
		return "NetworkError"
	case ErrKindTimeout:
		return "Timeout"
	case ErrKindHTTP:
		return "HttpError"
	case ErrKindMalformedResponse:
		return "MalformedResponse"
	case ErrKindRPC:
		return "RpcError"
	default:
		return "Unknown"
	}
}

// IsConfig reports whether the kind comes from upstream URL validation.
func (k GatewayErrorKind) IsConfig() bool {
	switch k {
	case ErrKindConfigMissing, ErrKindURLMalformed, ErrKindUnsupportedScheme, ErrKindInvalidPort:
		return true
	}
	return false
}

// GatewayError is the single error type returned by the pRPC gateway.
type GatewayError struct {
	Kind    GatewayErrorKind
	Message string

	// HttpError
	StatusCode int
	Body       string

	// RpcError
	RPCCode int

	Original error
}

func NewGatewayError(kind GatewayErrorKind, message string, original error) *GatewayError {
	return &GatewayError{Kind: kind, Message: message, Original: original}
}

func (e *GatewayError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Kind.String(), e.Message)
	if e.Original != nil {
		fmt.Fprintf(&sb, ": %v", e.Original)
	}
	return sb.String()
}

func (e *GatewayError) Unwrap() error {
	return e.Original
}

// AsGatewayError extracts a *GatewayError from an error chain.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// IsGatewayErrorKind reports whether err is a GatewayError of the given kind.
func IsGatewayErrorKind(err error, kind GatewayErrorKind) bool {
	gwErr, ok := AsGatewayError(err)
	return ok && gwErr.Kind == kind
}
