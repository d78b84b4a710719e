package domain

// QuoteFailure classifies why a quote lookup produced no usable price.
type QuoteFailure int

const (
	QuoteNone        QuoteFailure = iota // successful lookup
	QuoteEmptyReply                      // provider reply was structurally empty or too short
	QuoteNoData                          // provider marked the value unavailable
	QuoteUnavailable                     // transport, timeout or parse failure
)

// QuoteResult is the outcome of one provider call. It is transient: the
// stock worker folds it into a reply text immediately and it is never
// serialized to a queue.
type QuoteResult struct {
	StockCode string // code as requested by the user
	Symbol    string // symbol as returned by the provider
	Price     string // close price, raw provider formatting
	Failure   QuoteFailure
}

func SuccessQuote(stockCode, symbol, price string) QuoteResult {
	return QuoteResult{StockCode: stockCode, Symbol: symbol, Price: price}
}

func FailedQuote(stockCode, symbol string, failure QuoteFailure) QuoteResult {
	return QuoteResult{StockCode: stockCode, Symbol: symbol, Failure: failure}
}
