package domain

// RawOffer is one retailer listing as produced upstream. Field names and value
// types vary between retailers and the identification service.
type RawOffer map[string]interface{}

// PriceStatus records how a price value was obtained
type PriceStatus string

const (
	PriceAbsent  PriceStatus = "absent"  // no price field upstream
	PriceInvalid PriceStatus = "invalid" // present but could not be parsed
	PriceParsed  PriceStatus = "parsed"
)

// PriceValue is a parsed price. Amount is 0 unless Status is PriceParsed.
type PriceValue struct {
	Amount float64
	Status PriceStatus
}

// Known reports whether the amount came from a parseable upstream value
func (p PriceValue) Known() bool {
	return p.Status == PriceParsed
}

// NormalizedOffer is the canonical offer shape used by ranking and the session cache
type NormalizedOffer struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Price          float64           `json:"price"`
	PriceStatus    PriceStatus       `json:"priceStatus"`
	OriginalPrice  *float64          `json:"originalPrice,omitempty"`
	Vendor         string            `json:"vendor"`
	VendorLogoURL  string            `json:"vendorLogoUrl"`
	Rating         *float64          `json:"rating,omitempty"` // 0-5
	ImageURL       string            `json:"imageUrl"`
	Link           string            `json:"link"`
	Specifications map[string]string `json:"specifications,omitempty"`
	IsLowestPrice  bool              `json:"isLowestPrice"`
	IsBestDeal     bool              `json:"isBestDeal"`
}

// MalformedOfferWarning describes a raw offer that was normalized with defaults
type MalformedOfferWarning struct {
	Index   int      `json:"index"`
	Missing []string `json:"missing"`
}
