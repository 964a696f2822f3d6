package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pricelens/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	slugRegex           = regexp.MustCompile(`[^a-z0-9]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
	ratingNumberRegex   = regexp.MustCompile(`\d+(\.\d+)?`)
)

const (
	// FallbackOfferName is used when no title-like field is present
	FallbackOfferName = "Unnamed Product"

	// UnknownVendor is used when no retailer-like field is present
	UnknownVendor = "Unknown"

	defaultLink = "#"
	maxRating   = 5.0

	// vendorLogoTemplate builds a logo URL from the vendor slug
	vendorLogoTemplate = "https://logo.clearbit.com/%s.com"
)

// Field aliases seen across retailers and the identification service.
// Earlier keys win.
var (
	idKeys            = []string{"id", "productId", "product_id", "_id"}
	nameKeys          = []string{"name", "title", "productName", "product_name"}
	priceKeys         = []string{"price", "salePrice", "sale_price", "currentPrice", "current_price"}
	originalPriceKeys = []string{"originalPrice", "original_price", "mrp", "listPrice", "list_price"}
	vendorKeys        = []string{"vendor", "retailer", "store", "seller", "source"}
	vendorLogoKeys    = []string{"vendorLogoUrl", "vendorLogo", "vendor_logo", "retailerLogo", "logo"}
	ratingKeys        = []string{"rating", "stars", "averageRating"}
	imageKeys         = []string{"imageUrl", "image_url", "image", "thumbnail", "img"}
	linkKeys          = []string{"link", "url", "productUrl", "product_url", "href"}
	specKeys          = []string{"specifications", "specs", "attributes"}
)

// NormalizeOffers maps raw offers onto the canonical shape. It returns exactly
// one offer per input, in input order, plus a warning for every offer that
// needed defaults. Ranking flags are always false on output.
func NormalizeOffers(raw []domain.RawOffer) ([]domain.NormalizedOffer, []domain.MalformedOfferWarning) {
	offers := make([]domain.NormalizedOffer, 0, len(raw))
	var warnings []domain.MalformedOfferWarning

	derived := make([]bool, 0, len(raw))
	for i, r := range raw {
		offer, isDerived, missing := normalizeOffer(r)
		offers = append(offers, offer)
		derived = append(derived, isDerived)
		if len(missing) > 0 {
			warnings = append(warnings, domain.MalformedOfferWarning{Index: i, Missing: missing})
		}
	}

	// Upstream and random ids are registered first so derived ids route around them
	seen := make(map[string]int, len(offers))
	for i := range offers {
		if !derived[i] {
			seen[offers[i].ID]++
		}
	}
	for i := range offers {
		if derived[i] {
			offers[i].ID = uniqueID(offers[i].ID, seen)
		}
	}

	return offers, warnings
}

func normalizeOffer(raw domain.RawOffer) (domain.NormalizedOffer, bool, []string) {
	var missing []string

	rawName := cleanText(firstString(raw, nameKeys))
	rawVendor := cleanText(firstString(raw, vendorKeys))

	name := rawName
	if name == "" {
		name = FallbackOfferName
		missing = append(missing, "name")
	}
	vendor := rawVendor
	if vendor == "" {
		vendor = UnknownVendor
		missing = append(missing, "vendor")
	}

	price := ParsePrice(firstValue(raw, priceKeys))
	if !price.Known() {
		missing = append(missing, "price")
	}

	id, derived := AssignID(firstString(raw, idKeys), rawName, rawVendor)

	logo := firstString(raw, vendorLogoKeys)
	if logo == "" {
		logo = VendorLogoURL(vendor)
	}

	link := firstString(raw, linkKeys)
	if link == "" {
		link = defaultLink
	}

	offer := domain.NormalizedOffer{
		ID:             id,
		Name:           name,
		Price:          price.Amount,
		PriceStatus:    price.Status,
		Vendor:         vendor,
		VendorLogoURL:  logo,
		Rating:         parseRating(firstValue(raw, ratingKeys)),
		ImageURL:       firstString(raw, imageKeys),
		Link:           link,
		Specifications: parseSpecifications(firstValue(raw, specKeys)),
	}

	if original := ParsePrice(firstValue(raw, originalPriceKeys)); original.Known() {
		amount := original.Amount
		offer.OriginalPrice = &amount
	}

	return offer, derived, missing
}

// VendorLogoURL synthesizes a logo URL from the vendor name
func VendorLogoURL(vendor string) string {
	return fmt.Sprintf(vendorLogoTemplate, slug(vendor))
}

// firstValue returns the first non-nil value among keys
func firstValue(raw domain.RawOffer, keys []string) interface{} {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstString returns the first non-empty string-like value among keys
func firstString(raw domain.RawOffer, keys []string) string {
	for _, key := range keys {
		if s := stringify(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}

// cleanText drops markup and entities left by scrapers and collapses whitespace
func cleanText(s string) string {
	if strings.ContainsAny(s, "<>&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	s = multipleSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// parseRating accepts numbers or strings such as "4.3 out of 5"
func parseRating(v interface{}) *float64 {
	var rating float64
	switch val := v.(type) {
	case float64:
		rating = val
	case int:
		rating = float64(val)
	case string:
		match := ratingNumberRegex.FindString(val)
		if match == "" {
			return nil
		}
		f, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return nil
		}
		rating = f
	default:
		return nil
	}

	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return nil
	}
	rating = math.Max(0, math.Min(maxRating, rating))
	return &rating
}

func parseSpecifications(v interface{}) map[string]string {
	switch val := v.(type) {
	case map[string]string:
		if len(val) == 0 {
			return nil
		}
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out
	case map[string]interface{}:
		if len(val) == 0 {
			return nil
		}
		out := make(map[string]string, len(val))
		for k, item := range val {
			if item == nil {
				continue
			}
			out[k] = fmt.Sprint(item)
		}
		return out
	default:
		return nil
	}
}
