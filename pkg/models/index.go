package models

import "strings"

// Index identifies a tracked market index.
type Index string

const (
	IndexSP500  Index = "sp500"
	IndexCSI300 Index = "csi300"
)

// IndexInfo describes an index and where its data comes from.
type IndexInfo struct {
	ID        Index  `json:"id"`
	Name      string `json:"name"`
	Benchmark string `json:"benchmark"` // provider symbol of the index itself
	Exchange  string `json:"exchange"`
	TimeZone  string `json:"time_zone"`
	Currency  string `json:"currency"`
}

var indices = []IndexInfo{
	{
		ID:        IndexSP500,
		Name:      "S&P 500",
		Benchmark: "^GSPC",
		Exchange:  "NYSE/NASDAQ",
		TimeZone:  "America/New_York",
		Currency:  "USD",
	},
	{
		ID:        IndexCSI300,
		Name:      "CSI 300",
		Benchmark: "000300.SS",
		Exchange:  "SSE/SZSE",
		TimeZone:  "Asia/Shanghai",
		Currency:  "CNY",
	},
}

var indexAliases = map[string]Index{
	"sp500":   IndexSP500,
	"s&p500":  IndexSP500,
	"s&p 500": IndexSP500,
	"spx":     IndexSP500,
	"gspc":    IndexSP500,
	"csi300":  IndexCSI300,
	"csi 300": IndexCSI300,
	"hs300":   IndexCSI300,
}

// Indices returns all supported indices in display order.
func Indices() []IndexInfo {
	out := make([]IndexInfo, len(indices))
	copy(out, indices)
	return out
}

// LookupIndex resolves an index id or common alias ("S&P 500", "CSI 300", "spx").
func LookupIndex(s string) (IndexInfo, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, "_", "")
	id, ok := indexAliases[key]
	if !ok {
		return IndexInfo{}, false
	}
	for _, info := range indices {
		if info.ID == id {
			return info, true
		}
	}
	return IndexInfo{}, false
}
