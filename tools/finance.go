package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/SaiNageswarS/analytics-agent/agentboot"
	"github.com/SaiNageswarS/analytics-agent/schema"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/ollama/ollama/api"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const FinanceToolName = "get_data_tables"

var (
	ErrInvalidTicker  = errors.New("invalid ticker")
	ErrTickerNotFound = errors.New("ticker not found")
)

// Exchange suffixes such as .NS or .BO are part of the symbol.
var tickerPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9&\-]{0,14}(\.[A-Z]{1,4})?(=[A-Z])?$`)

type StatementKind string

const (
	StatementFinancials   StatementKind = "financials"
	StatementBalanceSheet StatementKind = "balance_sheet"
	StatementCashflow     StatementKind = "cashflow"
	StatementIncome       StatementKind = "income_stmt"
)

var statementKinds = []StatementKind{StatementFinancials, StatementBalanceSheet, StatementCashflow, StatementIncome}

// FinanceProvider fetches each field of a company's financial profile independently.
type FinanceProvider interface {
	// Resolve wraps ErrTickerNotFound when the ticker does not identify a listed
	// instrument. Any other error means the provider could not be reached.
	Resolve(ctx context.Context, ticker string) error
	Sector(ctx context.Context, ticker string) (string, error)
	MarketCap(ctx context.Context, ticker string) (int64, error)
	// Statement returns the statement as a JSON document.
	Statement(ctx context.Context, ticker string, kind StatementKind) (string, error)
}

// NormalizeTicker trims and upper-cases a ticker and rejects anything that
// cannot be a symbol.
func NormalizeTicker(raw string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if ticker == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrInvalidTicker)
	}
	if !tickerPattern.MatchString(ticker) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
	}
	return ticker, nil
}

// FinancialLookup merges per-field provider results into one FinancialData.
// Successful lookups are cached per ticker.
type FinancialLookup struct {
	provider FinanceProvider
	cache    *cache.Cache
}

func NewFinancialLookup(provider FinanceProvider, ttl time.Duration) *FinancialLookup {
	return &FinancialLookup{
		provider: provider,
		cache:    cache.New(ttl, 2*ttl),
	}
}

// Lookup never returns an error: identifier problems become a failure result
// and field problems leave the field out.
func (l *FinancialLookup) Lookup(ctx context.Context, companyName string) *schema.FinancialData {
	ticker, err := NormalizeTicker(companyName)
	if err != nil {
		logger.Error("Rejected ticker", zap.String("company_name", companyName), zap.Error(err))
		return schema.NewFinancialFailure(companyName, fmt.Sprintf("Invalid ticker symbol %q. Use the exchange ticker, for example SBIN.NS.", companyName))
	}

	if cached, ok := l.cache.Get(ticker); ok {
		data := *cached.(*schema.FinancialData)
		return &data
	}

	if err := l.provider.Resolve(ctx, ticker); err != nil {
		logger.Error("Failed to resolve ticker", zap.String("ticker", ticker), zap.Error(err))
		if errors.Is(err, ErrTickerNotFound) {
			return schema.NewFinancialFailure(ticker, fmt.Sprintf("Could not find financial data for %s: %v", ticker, err))
		}
		return schema.NewFinancialFailure(ticker, fmt.Sprintf("Financial data for %s is temporarily unavailable: %v", ticker, err))
	}

	sectorTask := async.Go(func() (string, error) { return l.provider.Sector(ctx, ticker) })
	marketCapTask := async.Go(func() (int64, error) { return l.provider.MarketCap(ctx, ticker) })

	statementTasks := make(map[StatementKind]<-chan async.Result[string], len(statementKinds))
	for _, kind := range statementKinds {
		statementTasks[kind] = async.Go(func() (string, error) { return l.provider.Statement(ctx, ticker, kind) })
	}

	data := &schema.FinancialData{Status: schema.StatusSuccess, Ticker: ticker}

	if sector, err := async.Await(sectorTask); err != nil {
		logFieldFailure(ticker, "sector", err)
	} else {
		data.Sector = sector
	}

	if marketCap, err := async.Await(marketCapTask); err != nil {
		logFieldFailure(ticker, "marketCap", err)
	} else {
		data.MarketCap = &marketCap
	}

	for _, kind := range statementKinds {
		statement, err := async.Await(statementTasks[kind])
		if err != nil {
			logFieldFailure(ticker, string(kind), err)
			continue
		}
		switch kind {
		case StatementFinancials:
			data.Financials = statement
		case StatementBalanceSheet:
			data.BalanceSheet = statement
		case StatementCashflow:
			data.Cashflow = statement
		case StatementIncome:
			data.IncomeStmt = statement
		}
	}

	fields := data.FieldCount()
	logger.Info("Financial lookup completed", zap.String("ticker", ticker), zap.Int("fields", fields))
	if fields > 0 {
		l.cache.Set(ticker, data, cache.DefaultExpiration)
	}

	out := *data
	return &out
}

func logFieldFailure(ticker, field string, err error) {
	logger.Error("Financial field unavailable", zap.String("ticker", ticker), zap.String("field", field), zap.Error(err))
}

// NewFinanceTool exposes the lookup as the get_data_tables tool. It yields a
// single chunk whose sentence is the FinancialData JSON document.
func NewFinanceTool(lookup *FinancialLookup) agentboot.MCPTool {
	return agentboot.NewMCPToolBuilder(FinanceToolName,
		"Fetch sector, market capitalization, financials, balance sheet, cash flow and income statement for a stock ticker. Use exchange suffixes such as .NS for NSE-listed companies.").
		StringParam("company_name", "Stock ticker symbol, e.g. SBIN.NS or AAPL", true).
		WithHandler(func(ctx context.Context, params api.ToolCallFunctionArguments) <-chan *schema.ToolResultChunk {
			out := make(chan *schema.ToolResultChunk, 1)

			go func() {
				defer close(out)

				data := lookup.Lookup(ctx, agentboot.StringArg(params, "company_name"))
				payload, err := json.Marshal(data)
				if err != nil {
					out <- agentboot.NewToolResultChunk().Title(data.Ticker).Error(err.Error()).Build()
					return
				}

				chunk := agentboot.NewToolResultChunk().
					Title(data.Ticker).
					Sentences(string(payload)).
					Attribution("Yahoo Finance").
					MetadataKV("status", data.Status).
					Build()
				if !data.Succeeded() {
					chunk.Metadata["error_msg"] = data.ErrorMsg
				}

				select {
				case out <- chunk:
				case <-ctx.Done():
				}
			}()

			return out
		}).
		Build()
}
