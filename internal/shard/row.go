// Package shard – typed accessors over raw result rows.
//
// Fan-out queries return driver-typed values: SQLite hands back int64 or
// float64, MySQL hands back []byte for DECIMAL aggregates. These accessors
// absorb that variance so aggregation code never switches on driver types.
package shard

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Int64 reads a column as int64, tolerating the integer/float/bytes/string
// representations different drivers produce. Missing or NULL columns read
// as zero.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case nil:
		return 0
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// Decimal reads a column as an exact decimal. Float inputs (SQLite SUM over
// NUMERIC affinity) go through the string form to avoid binary-float
// artifacts. Missing, NULL, or unparseable columns read as zero.
func (r Row) Decimal(col string) decimal.Decimal {
	switch v := r[col].(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case int64:
		return decimal.NewFromInt(v)
	case float64:
		d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', -1, 64))
		if err != nil {
			return decimal.Zero
		}
		return d
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// String reads a column as text. Missing or NULL columns read as "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
