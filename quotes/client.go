// Package quotes calls the external stock quote provider. The provider
// answers a GET with a tiny CSV document; the second line carries the
// symbol in column 0 and the close price in column 6, with "N/D" marking
// an unavailable value.
package quotes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finchat/domain"
)

const noDataSentinel = "N/D"

type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *slog.Logger
}

// NewClient builds a provider client with a bounded request timeout. The
// timeout must stay finite: a hung provider call would otherwise wedge the
// stock worker, whose whole point is to absorb provider latency.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		log:        log,
	}
}

// Fetch resolves one stock code. Every failure mode is folded into the
// returned QuoteResult; callers never need error handling for this client.
func (c *Client) Fetch(ctx context.Context, stockCode string) domain.QuoteResult {
	endpoint := fmt.Sprintf("%s?s=%s&f=sd2t2ohlcv&h&e=csv", c.baseURL, url.QueryEscape(stockCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.Error("Failed to build quote request", "stock_code", stockCode, "err", err)
		return domain.FailedQuote(stockCode, "", domain.QuoteUnavailable)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Quote provider unreachable", "stock_code", stockCode, "err", err)
		return domain.FailedQuote(stockCode, "", domain.QuoteUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("Quote provider returned non-OK status", "stock_code", stockCode, "status", resp.StatusCode)
		return domain.FailedQuote(stockCode, "", domain.QuoteUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn("Failed to read quote reply", "stock_code", stockCode, "err", err)
		return domain.FailedQuote(stockCode, "", domain.QuoteUnavailable)
	}

	return parseReply(stockCode, string(body))
}

// parseReply interprets the two-line CSV document. An unavailable-value
// sentinel in the price column is an error result, never a success with a
// placeholder price.
func parseReply(stockCode, reply string) domain.QuoteResult {
	var lines []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return domain.FailedQuote(stockCode, "", domain.QuoteEmptyReply)
	}

	fields := strings.Split(lines[1], ",")
	if len(fields) < 7 {
		return domain.FailedQuote(stockCode, "", domain.QuoteUnavailable)
	}

	symbol := fields[0]
	closePrice := fields[6]
	if strings.EqualFold(closePrice, noDataSentinel) {
		return domain.FailedQuote(stockCode, symbol, domain.QuoteNoData)
	}
	return domain.SuccessQuote(stockCode, symbol, closePrice)
}
