package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"pnodedash/config"
	"pnodedash/metrics"
	"pnodedash/models"
)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 32 << 20

// PRPCClient issues the single get-pods-with-stats call against the
// configured pNode RPC endpoint. It holds no mutable state once built, so
// concurrent calls never interfere.
type PRPCClient struct {
	endpoint   *url.URL
	configErr  error
	timeout    time.Duration
	httpClient *http.Client
}

// NewPRPCClient validates the upstream URL once. An invalid URL does not
// fail construction; it is returned from every call instead.
func NewPRPCClient(cfg *config.Config) *PRPCClient {
	endpoint, err := config.ValidateUpstreamURL(cfg.PRPC.URL)
	if err != nil {
		log.Warn().Err(err).Msg("pRPC upstream URL rejected; node fetches will fail until it is fixed")
	}

	return &PRPCClient{
		endpoint:  endpoint,
		configErr: err,
		timeout:   cfg.PRPCTimeoutDuration(),
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Endpoint returns the validated upstream URL, or nil when validation failed.
func (c *PRPCClient) Endpoint() *url.URL {
	return c.endpoint
}

// ConfigError returns the validation error recorded at construction.
func (c *PRPCClient) ConfigError() error {
	return c.configErr
}

// CallPRPC makes one JSON-RPC 2.0 call. It never retries. Every failure is a
// *models.GatewayError.
func (c *PRPCClient) CallPRPC(ctx context.Context, method string, params any) (*models.RPCResponse, error) {
	if c.configErr != nil {
		return nil, c.configErr
	}
	if params == nil {
		params = map[string]any{}
	}

	// 1. Build Payload
	reqBody := models.RPCRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, models.NewGatewayError(models.ErrKindURLMalformed, "failed to build pRPC request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, models.NewGatewayError(models.ErrKindURLMalformed, "failed to build pRPC request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.ContentLength = int64(len(payload))

	// 2. Execute
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer func() {
		// Drain so the connection goes back to the pool instead of leaking.
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	// 3. HTTP status
	if resp.StatusCode >= http.StatusBadRequest {
		gwErr := models.NewGatewayError(models.ErrKindHTTP,
			fmt.Sprintf("pRPC request failed with status %d", resp.StatusCode), nil)
		gwErr.StatusCode = resp.StatusCode
		gwErr.Body = string(body)
		return nil, gwErr
	}

	// 4. Decode Response
	if !json.Valid(body) {
		return nil, models.NewGatewayError(models.ErrKindMalformedResponse, "Failed to parse pRPC JSON response", nil)
	}
	var rpcResp models.RPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, models.NewGatewayError(models.ErrKindMalformedResponse, "Failed to parse pRPC JSON response", err)
	}

	// 5. Check RPC Error
	if rpcResp.Error != nil {
		message := rpcResp.Error.Message
		if message == "" {
			message = "Unknown error"
		}
		gwErr := models.NewGatewayError(models.ErrKindRPC, fmt.Sprintf("pRPC error: %s", message), nil)
		gwErr.RPCCode = rpcResp.Error.Code
		return &rpcResp, gwErr
	}

	return &rpcResp, nil
}

func (c *PRPCClient) transportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return models.NewGatewayError(models.ErrKindTimeout,
			fmt.Sprintf("Request to pRPC timed out after %s", c.timeout), err)
	}
	return models.NewGatewayError(models.ErrKindNetwork,
		fmt.Sprintf("Network error while fetching from pRPC: %v", err), err)
}

// GetPods calls "get-pods-with-stats" and returns result.pods. A missing
// result or pods field is an empty list, not an error.
func (c *PRPCClient) GetPods(ctx context.Context) ([]models.RawPod, error) {
	start := time.Now()
	pods, err := c.getPods(ctx)
	elapsed := time.Since(start)
	metrics.ObserveGatewayCall(err, elapsed)

	if err != nil {
		kind := models.ErrKindUnknown
		if gwErr, ok := models.AsGatewayError(err); ok {
			kind = gwErr.Kind
		}
		log.Warn().Err(err).Str("kind", kind.String()).Dur("elapsed", elapsed).Msg("pRPC fetch failed")
		return nil, err
	}

	log.Debug().Int("pods", len(pods)).Dur("elapsed", elapsed).Msg("Received pods from pRPC")
	return pods, nil
}

func (c *PRPCClient) getPods(ctx context.Context) ([]models.RawPod, error) {
	resp, err := c.CallPRPC(ctx, models.MethodGetPodsWithStats, map[string]any{})
	if err != nil {
		return nil, err
	}
	return decodePods(resp.Result)
}

func decodePods(result json.RawMessage) ([]models.RawPod, error) {
	pods := []models.RawPod{}

	// A result that is absent, null or not an object carries no pods.
	var fields map[string]json.RawMessage
	if len(result) == 0 || json.Unmarshal(result, &fields) != nil {
		return pods, nil
	}

	rawPods, ok := fields["pods"]
	if !ok || string(bytes.TrimSpace(rawPods)) == "null" {
		return pods, nil
	}

	if err := json.Unmarshal(rawPods, &pods); err != nil {
		return nil, models.NewGatewayError(models.ErrKindMalformedResponse, "result.pods is not a list", err)
	}
	return pods, nil
}
