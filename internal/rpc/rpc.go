package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	config "github.com/chainbatch/ingestor/configs"
	"github.com/chainbatch/ingestor/internal/common"
	"github.com/chainbatch/ingestor/internal/metrics"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog/log"
)

const DEFAULT_MAX_ATTEMPTS = 5
const DEFAULT_RETRY_BASE_DELAY = 1 * time.Second
const DEFAULT_RATE_LIMIT_FALLBACK = 60 * time.Second

const rateLimitResetHeader = "X-RateLimit-Reset"

type ChainClient interface {
	GetLatestBlockNumber(ctx context.Context) (uint64, error)
	GetBlockByNumber(ctx context.Context, blockNumber uint64) (common.RawBlock, error)
}

type Client struct {
	httpClient        *http.Client
	url               string
	maxAttempts       int
	retryBaseDelay    time.Duration
	rateLimitFallback time.Duration
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithMaxAttempts(attempts int) ClientOption {
	return func(c *Client) {
		c.maxAttempts = attempts
	}
}

func WithRetryBaseDelay(delay time.Duration) ClientOption {
	return func(c *Client) {
		c.retryBaseDelay = delay
	}
}

func WithRateLimitFallback(wait time.Duration) ClientOption {
	return func(c *Client) {
		c.rateLimitFallback = wait
	}
}

// Initialize constructs the client from the loaded config. The API key, when
// set, is appended to the endpoint URL as the last path segment, which is how
// hosted providers expect it.
func Initialize() (ChainClient, error) {
	rpcUrl := config.Cfg.RPC.URL
	if rpcUrl == "" {
		return nil, fmt.Errorf("RPC_URL is not set")
	}
	if apiKey := config.Cfg.RPC.APIKey; apiKey != "" {
		rpcUrl = strings.TrimSuffix(rpcUrl, "/") + "/" + apiKey
	}
	log.Debug().Msg("Initializing RPC client")
	return NewClient(rpcUrl), nil
}

func NewClient(url string, opts ...ClientOption) *Client {
	client := &Client{
		httpClient:        &http.Client{Timeout: 30 * time.Second},
		url:               url,
		maxAttempts:       DEFAULT_MAX_ATTEMPTS,
		retryBaseDelay:    DEFAULT_RETRY_BASE_DELAY,
		rateLimitFallback: DEFAULT_RATE_LIMIT_FALLBACK,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, "eth_blockNumber", []interface{}{})
	if err != nil {
		return 0, err
	}
	var hexNumber string
	if err := json.Unmarshal(result, &hexNumber); err != nil {
		return 0, &ProtocolError{Method: "eth_blockNumber", Message: fmt.Sprintf("result is not a hex string: %v", err)}
	}
	blockNumber, err := hexutil.DecodeUint64(hexNumber)
	if err != nil {
		return 0, &ProtocolError{Method: "eth_blockNumber", Message: fmt.Sprintf("invalid block number %q: %v", hexNumber, err)}
	}
	return blockNumber, nil
}

func (c *Client) GetBlockByNumber(ctx context.Context, blockNumber uint64) (common.RawBlock, error) {
	result, err := c.call(ctx, "eth_getBlockByNumber", []interface{}{hexutil.EncodeUint64(blockNumber), true})
	if err != nil {
		return nil, err
	}
	var block common.RawBlock
	if err := json.Unmarshal(result, &block); err != nil {
		return nil, &ProtocolError{Method: "eth_getBlockByNumber", Message: fmt.Sprintf("result is not a block object: %v", err)}
	}
	return block, nil
}

type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage   `json:"result"`
	Error  *rpcResponseError `json:"error"`
}

type rpcResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call performs one JSON-RPC request with the client's retry policy: rate
// limits are waited out indefinitely (callers bound this via ctx), retryable
// transport failures back off exponentially up to maxAttempts, everything
// else surfaces immediately.
func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{Jsonrpc: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request for %s: %v", method, err)
	}

	attempt := 0
	delay := c.retryBaseDelay
	for {
		result, err := c.post(ctx, method, body)
		if err == nil {
			return result, nil
		}

		var rateLimited *rateLimitedError
		if errors.As(err, &rateLimited) {
			wait := c.rateLimitFallback
			if rateLimited.hasReset {
				wait = time.Until(rateLimited.resetAt)
				if wait < 0 {
					wait = 0
				}
			}
			log.Warn().Str("method", method).Dur("wait", wait).Msg("Rate limited, waiting before retry")
			metrics.RateLimitWaits.Inc()
			if err := sleepContext(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		var transportErr *TransportError
		if errors.As(err, &transportErr) && transportErr.retryable {
			attempt++
			if attempt >= c.maxAttempts {
				return nil, err
			}
			log.Warn().Err(err).Str("method", method).Int("attempt", attempt).Msg("Transport failure, retrying")
			metrics.TransportRetries.Inc()
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
			continue
		}

		return nil, err
	}
}

func (c *Client) post(ctx context.Context, method string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Err: err, retryable: true}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, parseRateLimit(resp.Header)
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{Method: method, StatusCode: resp.StatusCode, retryable: true}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{Method: method, StatusCode: resp.StatusCode}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, &ProtocolError{Method: method, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}
	if rpcResp.Error != nil {
		return nil, &ProtocolError{Method: method, Message: fmt.Sprintf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)}
	}
	if len(rpcResp.Result) == 0 || bytes.Equal(rpcResp.Result, []byte("null")) {
		return nil, &ProtocolError{Method: method, Message: "no result in response"}
	}
	return rpcResp.Result, nil
}

func parseRateLimit(header http.Header) *rateLimitedError {
	resetHint := header.Get(rateLimitResetHeader)
	if resetHint == "" {
		return &rateLimitedError{}
	}
	resetEpoch, err := strconv.ParseInt(resetHint, 10, 64)
	if err != nil {
		return &rateLimitedError{}
	}
	return &rateLimitedError{resetAt: time.Unix(resetEpoch, 0), hasReset: true}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
