package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// RiskChecker reports whether a trader is restricted from trading.
type RiskChecker interface {
	IsRestricted(ctx context.Context, traderID string) (bool, error)
}

// RiskClient queries an external risk service for trader restrictions.
// The check fails open: when the service is unreachable after retries,
// the trader is treated as unrestricted and the failure is logged.
type RiskClient struct {
	baseURL string
	client  *http.Client
	retry   Policy
	logger  *slog.Logger
}

// NewRiskClient creates a RiskClient against baseURL.
func NewRiskClient(baseURL string, timeout time.Duration, retry Policy, logger *slog.Logger) *RiskClient {
	return &RiskClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		retry:   retry,
		logger:  logger,
	}
}

type riskResponse struct {
	TraderID   string `json:"trader_id"`
	Restricted bool   `json:"restricted"`
	Reason     string `json:"reason,omitempty"`
}

// IsRestricted asks the risk service about one trader. Transport and
// 5xx failures are retried per the policy, then fail open.
func (c *RiskClient) IsRestricted(ctx context.Context, traderID string) (bool, error) {
	endpoint := c.baseURL + "/v1/traders/" + url.PathEscape(traderID) + "/restriction"

	var restricted bool
	err := c.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("risk service returned %d", resp.StatusCode)
		}
		if resp.StatusCode == http.StatusNotFound {
			restricted = false
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("risk service returned unexpected %d", resp.StatusCode)
		}

		var body riskResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return err
		}
		restricted = body.Restricted
		return nil
	})
	if err != nil {
		c.logger.Warn("risk check failed, allowing trader",
			"trader_id", traderID,
			"error", err)
		return false, nil
	}
	return restricted, nil
}

// NoopRiskChecker always allows. Used when no risk service is
// configured.
type NoopRiskChecker struct{}

func (NoopRiskChecker) IsRestricted(ctx context.Context, traderID string) (bool, error) {
	return false, nil
}
