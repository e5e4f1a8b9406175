package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	yahooBaseURL   = "https://query2.finance.yahoo.com"
	yahooCookieURL = "https://fc.yahoo.com"
	yahooCrumbURL  = "https://query1.finance.yahoo.com/v1/test/getcrumb"
	yahooUserAgent = "Mozilla/5.0 (compatible; analytics-agent/1.0)"
)

var (
	errFieldMissing = errors.New("field not reported")
	errUnauthorized = errors.New("yahoo rejected the session crumb")
)

// statementModule names the quoteSummary module holding a statement and the
// list of per-period statements inside it.
type statementModule struct {
	module string
	list   string
}

// financials is the income statement, as yfinance reports it.
var statementModules = map[StatementKind]statementModule{
	StatementFinancials:   {module: "incomeStatementHistory", list: "incomeStatementHistory"},
	StatementBalanceSheet: {module: "balanceSheetHistory", list: "balanceSheetStatements"},
	StatementCashflow:     {module: "cashflowStatementHistory", list: "cashflowStatements"},
	StatementIncome:       {module: "incomeStatementHistory", list: "incomeStatementHistory"},
}

// YahooProvider reads Yahoo Finance quoteSummary modules, one module per field.
// Requests carry the session cookie and crumb Yahoo hands out on first contact.
type YahooProvider struct {
	baseURL    string
	cookieURL  string
	crumbURL   string
	httpClient *http.Client

	mu    sync.Mutex
	crumb string
}

func NewYahooProvider(httpClient *http.Client) *YahooProvider {
	client := &http.Client{Timeout: 20 * time.Second}
	if httpClient != nil {
		c := *httpClient
		client = &c
	}
	if client.Jar == nil {
		jar, _ := cookiejar.New(nil)
		client.Jar = jar
	}

	return &YahooProvider{
		baseURL:    yahooBaseURL,
		cookieURL:  yahooCookieURL,
		crumbURL:   yahooCrumbURL,
		httpClient: client,
	}
}

// NewYahooProviderWithBase serves quoteSummary, the cookie and the crumb from one host.
func NewYahooProviderWithBase(baseURL string, httpClient *http.Client) *YahooProvider {
	p := NewYahooProvider(httpClient)
	p.baseURL = strings.TrimSuffix(baseURL, "/")
	p.cookieURL = p.baseURL + "/"
	p.crumbURL = p.baseURL + "/v1/test/getcrumb"
	return p
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type quoteSummaryResponse struct {
	QuoteSummary *struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yahooError                  `json:"error"`
	} `json:"quoteSummary"`
	Finance *struct {
		Error *yahooError `json:"error"`
	} `json:"finance"`
}

func (r *quoteSummaryResponse) err() *yahooError {
	if r.QuoteSummary != nil && r.QuoteSummary.Error != nil {
		return r.QuoteSummary.Error
	}
	if r.Finance != nil {
		return r.Finance.Error
	}
	return nil
}

func (p *YahooProvider) Resolve(ctx context.Context, ticker string) error {
	_, err := p.module(ctx, ticker, "price")
	return err
}

func (p *YahooProvider) Sector(ctx context.Context, ticker string) (string, error) {
	raw, err := p.module(ctx, ticker, "assetProfile")
	if err != nil {
		return "", err
	}

	var profile struct {
		Sector string `json:"sector"`
	}
	if err := json.Unmarshal(raw, &profile); err != nil {
		return "", fmt.Errorf("decode assetProfile: %w", err)
	}
	if profile.Sector == "" {
		return "", fmt.Errorf("sector: %w", errFieldMissing)
	}
	return profile.Sector, nil
}

func (p *YahooProvider) MarketCap(ctx context.Context, ticker string) (int64, error) {
	raw, err := p.module(ctx, ticker, "price")
	if err != nil {
		return 0, err
	}

	var price struct {
		MarketCap *struct {
			Raw int64 `json:"raw"`
		} `json:"marketCap"`
	}
	if err := json.Unmarshal(raw, &price); err != nil {
		return 0, fmt.Errorf("decode price: %w", err)
	}
	if price.MarketCap == nil || price.MarketCap.Raw == 0 {
		return 0, fmt.Errorf("marketCap: %w", errFieldMissing)
	}
	return price.MarketCap.Raw, nil
}

// Statement returns the statement as a JSON array with one record per
// reporting period, most recent first.
func (p *YahooProvider) Statement(ctx context.Context, ticker string, kind StatementKind) (string, error) {
	sm, ok := statementModules[kind]
	if !ok {
		return "", fmt.Errorf("unknown statement %q", kind)
	}

	raw, err := p.module(ctx, ticker, sm.module)
	if err != nil {
		return "", err
	}

	var container map[string]json.RawMessage
	if err := json.Unmarshal(raw, &container); err != nil {
		return "", fmt.Errorf("decode %s: %w", sm.module, err)
	}
	var periods []map[string]json.RawMessage
	if list, ok := container[sm.list]; ok {
		if err := json.Unmarshal(list, &periods); err != nil {
			return "", fmt.Errorf("decode %s.%s: %w", sm.module, sm.list, err)
		}
	}
	if len(periods) == 0 {
		return "", fmt.Errorf("%s: %w", kind, errFieldMissing)
	}

	records := make([]map[string]any, 0, len(periods))
	for _, period := range periods {
		record := make(map[string]any, len(period))
		for name, value := range period {
			if name == "maxAge" {
				continue
			}
			record[name] = flattenValue(name, value)
		}
		records = append(records, record)
	}

	out, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", kind, err)
	}
	return string(out), nil
}

// flattenValue reduces Yahoo's {"raw":..,"fmt":..} pairs to the raw number.
// Period end dates keep their formatted date; empty objects become null.
func flattenValue(name string, value json.RawMessage) any {
	var pair struct {
		Raw json.RawMessage `json:"raw"`
		Fmt string          `json:"fmt"`
	}
	if trimmed := bytes.TrimSpace(value); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return nil
		}
		if name == "endDate" && pair.Fmt != "" {
			return pair.Fmt
		}
		if len(pair.Raw) == 0 {
			return nil
		}
		value = pair.Raw
	}

	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// module fetches one quoteSummary module, renewing the crumb once if Yahoo
// rejects it.
func (p *YahooProvider) module(ctx context.Context, ticker, module string) (json.RawMessage, error) {
	crumb, err := p.sessionCrumb(ctx, false)
	if err != nil {
		return nil, err
	}

	raw, err := p.fetchModule(ctx, ticker, module, crumb)
	if !errors.Is(err, errUnauthorized) {
		return raw, err
	}

	if crumb, err = p.sessionCrumb(ctx, true); err != nil {
		return nil, err
	}
	return p.fetchModule(ctx, ticker, module, crumb)
}

func (p *YahooProvider) fetchModule(ctx context.Context, ticker, module, crumb string) (json.RawMessage, error) {
	query := url.Values{"modules": {module}, "crumb": {crumb}}
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", p.baseURL, url.PathEscape(ticker), query.Encode())

	resp, body, err := p.get(ctx, endpoint, "application/json")
	if err != nil {
		return nil, err
	}

	var summary quoteSummaryResponse
	decodeErr := json.Unmarshal(body, &summary)
	yerr := summary.err()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if yerr != nil {
			return nil, fmt.Errorf("%w: %s", errUnauthorized, yerr.Description)
		}
		return nil, errUnauthorized
	case resp.StatusCode == http.StatusNotFound, yerr != nil && yerr.Code == "Not Found":
		msg := "quote not found"
		if yerr != nil {
			msg = yerr.Description
		}
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, msg)
	case decodeErr != nil:
		return nil, fmt.Errorf("quoteSummary status %d: %w", resp.StatusCode, decodeErr)
	case yerr != nil:
		return nil, fmt.Errorf("quoteSummary %s: %s", yerr.Code, yerr.Description)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("quoteSummary status %d", resp.StatusCode)
	case summary.QuoteSummary == nil || len(summary.QuoteSummary.Result) == 0:
		return nil, fmt.Errorf("%w: no quoteSummary result for %s", ErrTickerNotFound, ticker)
	}

	raw, ok := summary.QuoteSummary.Result[0][module]
	if !ok || string(raw) == "null" {
		return nil, fmt.Errorf("%s: %w", module, errFieldMissing)
	}
	return raw, nil
}

// sessionCrumb returns the cached crumb, running the cookie and getcrumb
// handshake when there is none or renew is set.
func (p *YahooProvider) sessionCrumb(ctx context.Context, renew bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crumb != "" && !renew {
		return p.crumb, nil
	}

	// The cookie host answers with an error status but still sets the session cookie.
	if _, _, err := p.get(ctx, p.cookieURL, "text/html"); err != nil {
		return "", fmt.Errorf("failed to obtain yahoo session cookie: %w", err)
	}

	resp, body, err := p.get(ctx, p.crumbURL, "text/plain")
	if err != nil {
		return "", fmt.Errorf("failed to obtain yahoo crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK || crumb == "" || strings.ContainsAny(crumb, "<{ ") {
		return "", fmt.Errorf("yahoo crumb request returned status %d", resp.StatusCode)
	}

	p.crumb = crumb
	return crumb, nil
}

func (p *YahooProvider) get(ctx context.Context, endpoint, accept string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, body, nil
}
