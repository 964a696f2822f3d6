package usecase

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

var (
	// Currency glyphs and the codes retailers print next to prices
	currencyRegex = regexp.MustCompile(`(?i)(rs\.?|inr|usd|eur|gbp|[₹$€£¥₩₽])`)
	numericRegex  = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ParsePrice converts an upstream price into a non-negative amount. It never
// fails: missing values are PriceAbsent and unparseable ones PriceInvalid,
// both with a zero amount.
func ParsePrice(value interface{}) domain.PriceValue {
	switch v := value.(type) {
	case nil:
		return domain.PriceValue{Status: domain.PriceAbsent}
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return fromFloat(float64(v))
	case int64:
		return fromFloat(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return domain.PriceValue{Status: domain.PriceInvalid}
		}
		return fromFloat(f)
	case string:
		return parsePriceString(v)
	default:
		return domain.PriceValue{Status: domain.PriceInvalid}
	}
}

func parsePriceString(s string) domain.PriceValue {
	if strings.TrimSpace(s) == "" {
		return domain.PriceValue{Status: domain.PriceAbsent}
	}

	cleaned := currencyRegex.ReplaceAllString(s, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.Join(strings.Fields(cleaned), "")

	if !numericRegex.MatchString(cleaned) {
		return domain.PriceValue{Status: domain.PriceInvalid}
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return domain.PriceValue{Status: domain.PriceInvalid}
	}
	return fromFloat(f)
}

func fromFloat(f float64) domain.PriceValue {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return domain.PriceValue{Status: domain.PriceInvalid}
	}
	return domain.PriceValue{Amount: f, Status: domain.PriceParsed}
}
