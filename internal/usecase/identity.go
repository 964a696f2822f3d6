package usecase

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const idNameLength = 20

// slug lower-cases s and drops everything except ASCII letters and digits
func slug(s string) string {
	return slugRegex.ReplaceAllString(strings.ToLower(s), "")
}

// AssignID returns the offer id. An upstream id is kept verbatim; otherwise the
// id is derived from name and vendor. The bool is true for derived ids.
// Offers with neither name nor vendor get a random id.
func AssignID(upstreamID, name, vendor string) (string, bool) {
	if upstreamID != "" {
		return upstreamID, false
	}

	nameSlug := slug(name)
	if len(nameSlug) > idNameLength {
		nameSlug = nameSlug[:idNameLength]
	}
	vendorSlug := slug(vendor)

	if nameSlug == "" && vendorSlug == "" {
		return uuid.NewString(), false
	}
	return nameSlug + "-" + vendorSlug, true
}

// uniqueID suffixes derived ids that already appeared in the result set
func uniqueID(id string, seen map[string]int) string {
	seen[id]++
	if seen[id] == 1 {
		return id
	}
	for {
		candidate := id + "-" + strconv.Itoa(seen[id])
		if _, taken := seen[candidate]; !taken {
			seen[candidate] = 1
			return candidate
		}
		seen[id]++
	}
}
