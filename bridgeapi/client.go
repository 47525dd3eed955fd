package bridgeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/t3rntools/bridge-cycler/config"
	"github.com/t3rntools/bridge-cycler/utils"
)

// Client talks to the t3rn bridge API. A client carries its own http.Client
// so proxied wallet runs don't share transports.
type Client struct {
	baseURL string
	origin  string
	http    *http.Client
	logger  logrus.FieldLogger
	retries utils.RetryPolicy
}

func NewClient(cfg *config.APIConfig, logger logrus.FieldLogger, proxyURL string, retries utils.RetryPolicy) (*Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("can't parse proxy url: %w", err)
		}
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		origin:  cfg.Origin,
		http:    httpClient,
		logger:  logger,
		retries: retries,
	}, nil
}

// GetOrder fetches the current state of an order. A 404 means the API has
// not indexed the order yet and is reported as (nil, nil).
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order *Order
	err := c.retries.Retry(ctx, c.logger, "order status request", func(ctx context.Context) error {
		body, status, err := c.get(ctx, "/order/"+orderID)
		if err != nil {
			return err
		}
		if status == http.StatusNotFound {
			order = nil
			return nil
		}
		if status != http.StatusOK {
			return fmt.Errorf("order request returned status %d: %s", status, trim(body))
		}
		order = &Order{}
		if err := json.Unmarshal(body, order); err != nil {
			return fmt.Errorf("can't decode order response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// PriceUSD returns the USD value of an asset amount. The API responds with a
// plain-text decimal number.
func (c *Client) PriceUSD(ctx context.Context, apiChain, token string, amountWei *big.Int) (float64, error) {
	var price float64
	err := c.retries.Retry(ctx, c.logger, "price request", func(ctx context.Context) error {
		body, status, err := c.get(ctx, fmt.Sprintf("/prices/usd/%s/%s/%s", apiChain, token, amountWei))
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("price request returned status %d: %s", status, trim(body))
		}
		price, err = strconv.ParseFloat(strings.TrimSpace(string(body)), 64)
		if err != nil {
			return fmt.Errorf("can't parse price response %q: %w", trim(body), err)
		}
		return nil
	})
	return price, err
}

// Estimate asks the API for the expected received amount and max reward of a
// prospective transfer.
func (c *Client) Estimate(ctx context.Context, req *EstimateRequest) (*Estimate, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("can't encode estimate request: %w", err)
	}
	var estimate *Estimate
	err = c.retries.Retry(ctx, c.logger, "estimate request", func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/estimate", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		c.setHeaders(httpReq)
		body, status, err := c.do(httpReq)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("estimate request returned status %d: %s", status, trim(body))
		}
		estimate = &Estimate{}
		if err := json.Unmarshal(body, estimate); err != nil {
			return fmt.Errorf("can't decode estimate response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return estimate, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	c.setHeaders(req)
	return c.do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
		req.Header.Set("Referer", c.origin+"/")
	}
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("can't read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func trim(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
