// Package utils provides common utility functions for indexmovers.
package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/seenimoa/indexmovers/pkg/models"
)

// ErrInvalidTicker is returned when a listed symbol cannot be mapped to a
// provider symbol.
var ErrInvalidTicker = errors.New("invalid ticker")

// Yahoo suffixes for mainland China exchanges.
const (
	SuffixShanghai = ".SS"
	SuffixShenzhen = ".SZ"
)

// ToYahooTicker converts a listed symbol to the Yahoo Finance symbol for the
// given index.
//
// CSI 300 codes are zero-padded to six digits and suffixed by exchange: codes
// starting with 6 trade in Shanghai (.SS), everything else in Shenzhen (.SZ).
// S&P 500 symbols are upper-cased and class separators become dashes
// (BRK.B → BRK-B).
func ToYahooTicker(index models.Index, raw string) (string, error) {
	switch index {
	case models.IndexCSI300:
		return toChinaTicker(raw)
	case models.IndexSP500:
		return toUSTicker(raw)
	default:
		return "", fmt.Errorf("%w: unknown index %q", ErrInvalidTicker, index)
	}
}

func toChinaTicker(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if strings.HasSuffix(code, SuffixShanghai) || strings.HasSuffix(code, SuffixShenzhen) {
		code = code[:len(code)-3]
	}
	// Spreadsheets often store codes as numbers ("1" or "1.0" for 000001).
	code = strings.TrimSuffix(code, ".0")

	if code == "" || len(code) > 6 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
		}
	}

	code = strings.Repeat("0", 6-len(code)) + code
	if strings.HasPrefix(code, "6") {
		return code + SuffixShanghai, nil
	}
	return code + SuffixShenzhen, nil
}

func toUSTicker(raw string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	sym = strings.TrimPrefix(sym, "$")
	if sym == "" || strings.ContainsAny(sym, " \t/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
	}
	return strings.ReplaceAll(sym, ".", "-"), nil
}

// FromYahooTicker strips the exchange suffix of a mainland China symbol.
// US symbols are returned unchanged.
func FromYahooTicker(yfTicker string) string {
	yfTicker = strings.TrimSuffix(yfTicker, SuffixShanghai)
	yfTicker = strings.TrimSuffix(yfTicker, SuffixShenzhen)
	return yfTicker
}

// NormalizeTicker upper-cases and trims user input such as a CLI argument.
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	return strings.TrimPrefix(ticker, "$")
}
