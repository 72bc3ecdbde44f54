// Package ticker parses exchange-qualified ticker symbols such as "NPN.JO"
// or "VOD.L" into their base symbol and exchange suffix.
package ticker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Exchange suffixes the engine treats specially.
const (
	Johannesburg = "JO"
	London       = "L"
	TelAviv      = "TA"
)

// exchangeNames lists well-known suffixes. Unknown suffixes still parse.
var exchangeNames = map[string]string{
	Johannesburg: "Johannesburg Stock Exchange",
	London:       "London Stock Exchange",
	TelAviv:      "Tel Aviv Stock Exchange",
	"TO":         "Toronto Stock Exchange",
	"AX":         "Australian Securities Exchange",
	"HK":         "Hong Kong Stock Exchange",
	"T":          "Tokyo Stock Exchange",
	"DE":         "Xetra",
	"PA":         "Euronext Paris",
	"NS":         "National Stock Exchange of India",
}

// symbolRegex matches: {base}[.{suffix}]
// Examples: AAPL, BRK-B, NPN.JO, 7203.T, ^GSPC
var symbolRegex = regexp.MustCompile(`^(\^?[A-Z0-9][A-Z0-9&=-]{0,14})(?:\.([A-Z]{1,3}))?$`)

var ErrInvalidTicker = errors.New("ticker: invalid symbol")

// Ticker is a parsed symbol.
type Ticker struct {
	Symbol   string `json:"symbol"`
	Base     string `json:"base"`
	Exchange string `json:"exchange,omitempty"`
}

// Parse validates and splits a ticker symbol. Input is trimmed and
// upper-cased first.
func Parse(symbol string) (*Ticker, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	matches := symbolRegex.FindStringSubmatch(s)
	if matches == nil {
		return nil, fmt.Errorf("%w: %q (expected BASE or BASE.EXCHANGE)", ErrInvalidTicker, symbol)
	}
	return &Ticker{
		Symbol:   s,
		Base:     matches[1],
		Exchange: matches[2],
	}, nil
}

// OnExchange reports whether the ticker carries the given suffix.
func (t *Ticker) OnExchange(suffix string) bool {
	return t.Exchange == strings.ToUpper(suffix)
}

// ExchangeName returns a human-readable exchange name, or "" when the
// suffix is absent or unknown.
func (t *Ticker) ExchangeName() string {
	return exchangeNames[t.Exchange]
}
