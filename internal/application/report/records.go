package report

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// record is a raw catalog record keyed by field name
type record map[string]json.RawMessage

func decodeRecord(raw json.RawMessage) (record, bool) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil || r == nil {
		return nil, false
	}
	return r, true
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// int64Field reads an id that may be a number, a numeric string or absent
func (r record) int64Field(name string) (int64, bool) {
	raw, ok := r[name]
	if !ok || isNull(raw) {
		return 0, false
	}
	d, ok := parseDecimal(raw)
	if !ok {
		return 0, false
	}
	return d.IntPart(), true
}

// stringField reads a string field; numbers are returned as their JSON text
func (r record) stringField(name string) string {
	raw, ok := r[name]
	if !ok || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	if _, ok := parseDecimal(raw); ok {
		return strings.TrimSpace(string(raw))
	}
	return ""
}

// decimalField reads a present, non-null numeric value
func (r record) decimalField(name string) (decimal.Decimal, bool) {
	raw, ok := r[name]
	if !ok || isNull(raw) {
		return decimal.Zero, false
	}
	return parseDecimal(raw)
}

// costField reads a cost candidate. Present and non-null means the candidate
// applies; an unparseable value costs zero.
func (r record) costField(name string) (decimal.Decimal, bool) {
	raw, ok := r[name]
	if !ok || isNull(raw) {
		return decimal.Zero, false
	}
	d, _ := parseDecimal(raw)
	return d, true
}

// parseDecimal accepts a JSON number or a string holding one
func parseDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return decimal.Zero, false
		}
		text = strings.TrimSpace(unquoted)
	}
	if text == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
