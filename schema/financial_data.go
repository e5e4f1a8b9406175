package schema

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// FinancialData is the result of the get_data_tables lookup. On success every
// data field is optional: a field the provider could not supply is simply omitted.
// Statements are JSON arrays of records, one record per reporting period.
type FinancialData struct {
	Status       string `json:"status"`
	ErrorMsg     string `json:"error_msg,omitempty"`
	Ticker       string `json:"ticker,omitempty"`
	Sector       string `json:"sector,omitempty"`
	MarketCap    *int64 `json:"marketCap,omitempty"`
	Financials   string `json:"financials,omitempty"`
	BalanceSheet string `json:"balance_sheet,omitempty"`
	Cashflow     string `json:"cashflow,omitempty"`
	IncomeStmt   string `json:"income_stmt,omitempty"`
}

func NewFinancialFailure(ticker, msg string) *FinancialData {
	return &FinancialData{Status: StatusFailure, Ticker: ticker, ErrorMsg: msg}
}

func (d *FinancialData) Succeeded() bool {
	return d != nil && d.Status == StatusSuccess
}

// FieldCount is the number of data fields populated.
func (d *FinancialData) FieldCount() int {
	n := 0
	for _, s := range []string{d.Sector, d.Financials, d.BalanceSheet, d.Cashflow, d.IncomeStmt} {
		if s != "" {
			n++
		}
	}
	if d.MarketCap != nil {
		n++
	}
	return n
}
