package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"pnodedash/models"
)

// ValidateUpstreamURL checks the configured pRPC URL before any network I/O.
// Checks run in order and the first failure wins: presence, absolute URL,
// scheme, port.
func ValidateUpstreamURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, models.NewGatewayError(models.ErrKindConfigMissing,
			"Server misconfiguration: PNODE_RPC_URL is missing", nil)
	}

	u, err := url.Parse(trimmed)
	var port string
	if err != nil {
		// url.Parse rejects non-numeric ports on its own. Parse again without
		// the port so the scheme check still runs first and the port check
		// can name the offending value.
		stripped, rawPort, ok := stripAuthorityPort(trimmed)
		if !ok {
			return nil, malformed(err)
		}
		u, err = url.Parse(stripped)
		if err != nil {
			return nil, malformed(err)
		}
		port = rawPort
	} else {
		port = u.Port()
	}

	if !u.IsAbs() {
		return nil, malformed(fmt.Errorf("missing scheme in %q", trimmed))
	}

	scheme := strings.ToLower(u.Scheme)
	isHTTP := scheme == "http" || scheme == "https"
	if isHTTP && u.Hostname() == "" {
		return nil, malformed(fmt.Errorf("missing host in %q", trimmed))
	}
	if !isHTTP {
		return nil, models.NewGatewayError(models.ErrKindUnsupportedScheme,
			fmt.Sprintf("Unsupported protocol: %s", u.Scheme), nil)
	}

	if port != "" {
		if !isDigits(port) {
			return nil, models.NewGatewayError(models.ErrKindInvalidPort,
				fmt.Sprintf("Invalid port in PNODE_RPC_URL: %s", port), nil)
		}
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return nil, models.NewGatewayError(models.ErrKindInvalidPort,
				fmt.Sprintf("Port out of range in PNODE_RPC_URL: %s", port), nil)
		}
	}

	return u, nil
}

func malformed(err error) error {
	return models.NewGatewayError(models.ErrKindURLMalformed,
		fmt.Sprintf("Invalid PNODE_RPC_URL format: %v", err), nil)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// stripAuthorityPort removes a non-numeric port from scheme://host:port/...
// and returns it. ok is false when there is no such port to blame.
func stripAuthorityPort(raw string) (stripped string, port string, ok bool) {
	idx := strings.Index(raw, "://")
	if idx < 0 {
		return "", "", false
	}
	prefix := raw[:idx+3]
	rest := raw[idx+3:]

	end := strings.IndexAny(rest, "/?#")
	if end < 0 {
		end = len(rest)
	}
	authority := rest[:end]

	hostStart := strings.LastIndex(authority, "@") + 1
	hostport := authority[hostStart:]

	colon := strings.LastIndex(hostport, ":")
	if colon < 0 || strings.LastIndex(hostport, "]") > colon {
		return "", "", false
	}
	port = hostport[colon+1:]
	if port == "" || isDigits(port) {
		return "", "", false
	}

	return prefix + authority[:hostStart] + hostport[:colon] + rest[end:], port, true
}
