package normalization

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// timestampLayouts are tried in order. Layouts without a zone parse as UTC.
// Fractional seconds are accepted after the seconds field by time.Parse even
// when the layout does not mention them.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"1/2/2006 15:04:05 Z07:00",
	"1/2/2006 15:04:05 -0700",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"1/2/06 15:04:05",
	"1/2/06 15:04",
	"1/2/06",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// nullTokens are cell texts that mean "no value" rather than a bad value.
var nullTokens = map[string]struct{}{
	"":     {},
	"-":    {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"nat":  {},
	"null": {},
	"none": {},
}

// isNullText reports whether s is empty or a conventional null marker.
func isNullText(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseTimestamp parses text in any of the common timestamp encodings.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses decimal text. Thousands separators, a currency sign and
// accounting parentheses for negatives are accepted: "(1,234.50)" is -1234.5.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer(",", "", "_", "", " ", "", "\u00a0", "").Replace(s)
	switch {
	case strings.HasPrefix(s, "-$"):
		s = "-" + s[2:]
	case strings.HasPrefix(s, "$"):
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if negative {
		d = d.Neg()
	}

	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

var clockDurationRe = regexp.MustCompile(
	`^(?:([+-]?\d+)\s*days?,?\s*)?(?:([+-])?(\d+):(\d{1,2}):(\d{1,2}(?:\.\d+)?))?$`)

// ParseDuration parses Go duration syntax ("1h30m"), clock syntax
// ("00:30:00", "00:30:00.250") and day-prefixed clock syntax
// ("1 day, 02:00:00", "0 days 00:05:00").
func ParseDuration(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}

	m := clockDurationRe.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[3] == "") {
		return 0, false
	}

	var total time.Duration
	if m[1] != "" {
		days, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, false
		}
		total += time.Duration(days) * 24 * time.Hour
	}
	if m[3] != "" {
		hours, _ := strconv.ParseInt(m[3], 10, 64)
		minutes, _ := strconv.ParseInt(m[4], 10, 64)
		seconds, err := strconv.ParseFloat(m[5], 64)
		if err != nil || minutes > 59 || seconds >= 60 {
			return 0, false
		}
		clock := time.Duration(hours)*time.Hour +
			time.Duration(minutes)*time.Minute +
			time.Duration(math.Round(seconds*float64(time.Second)))
		if m[2] == "-" {
			clock = -clock
		}
		total += clock
	}
	return total, true
}

// The coerce functions turn a raw cell into a typed value. They return
// (nil, false) for a missing value and (nil, true) for a value that is
// present but cannot be interpreted.

func coerceString(v any) (*string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		s = fmt.Sprint(t)
	}
	if isNullText(s) {
		return nil, false
	}
	s = strings.TrimSpace(s)
	return &s, false
}

func coerceTime(v any) (*time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case time.Time:
		if t.IsZero() {
			return nil, false
		}
		return &t, false
	case []byte:
		return coerceTime(string(t))
	case string:
		if isNullText(t) {
			return nil, false
		}
		parsed, ok := ParseTimestamp(t)
		if !ok {
			return nil, true
		}
		return &parsed, false
	default:
		return nil, true
	}
}

func coerceNumber(v any) (*float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil, false
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case decimal.Decimal:
		f = t.InexactFloat64()
	case []byte:
		return coerceNumber(string(t))
	case string:
		if isNullText(t) {
			return nil, false
		}
		parsed, ok := ParseNumber(t)
		if !ok {
			return nil, true
		}
		f = parsed
	default:
		return nil, true
	}
	if math.IsNaN(f) {
		return nil, false
	}
	if math.IsInf(f, 0) {
		return nil, true
	}
	return &f, false
}

func coerceDuration(v any) (*time.Duration, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case time.Duration:
		return &t, false
	case []byte:
		return coerceDuration(string(t))
	case string:
		if isNullText(t) {
			return nil, false
		}
		d, ok := ParseDuration(t)
		if !ok {
			return nil, true
		}
		return &d, false
	default:
		return nil, true
	}
}
