package domain

// InputType identifies what the user submitted
type InputType string

const (
	InputText    InputType = "text"
	InputImage   InputType = "image"
	InputBarcode InputType = "barcode"
)

// SearchInput is a single search submission
type SearchInput struct {
	Type     InputType `json:"type"`
	Query    string    `json:"query,omitempty"`
	Image    []byte    `json:"image,omitempty"` // base64 in JSON
	MimeType string    `json:"mimeType,omitempty"`
	Barcode  string    `json:"barcode,omitempty"`
}

// NeedsIdentification reports whether the input must be turned into keywords first
func (in SearchInput) NeedsIdentification() bool {
	return in.Type == InputImage || in.Type == InputBarcode
}

// SearchSession is the persisted state of one completed search
type SearchSession struct {
	Query            string            `json:"query"`
	Offers           []NormalizedOffer `json:"offers"`
	ScrapedRetailers []string          `json:"scrapedRetailers"`
	FailedRetailers  []string          `json:"failedRetailers"`
	Timestamp        int64             `json:"timestamp"` // unix millis
}

// ViewedItem is an entry in the recently viewed list
type ViewedItem struct {
	Offer    NormalizedOffer `json:"offer"`
	Query    string          `json:"query,omitempty"`
	ViewedAt int64           `json:"viewedAt"`
}

// RetailerSearchResult is the combined payload returned by the retailer-search collaborator
type RetailerSearchResult struct {
	Offers           []RawOffer `json:"offers"`
	ScrapedRetailers []string   `json:"scrapedRetailers"`
	FailedRetailers  []string   `json:"failedRetailers"`
}

// IdentifyRequest is the payload sent to the identification collaborator
type IdentifyRequest struct {
	Type     InputType
	Image    []byte
	MimeType string
	Barcode  string
}

// IdentifyResult is the identification collaborator's answer
type IdentifyResult struct {
	Success  bool   `json:"success"`
	Keywords string `json:"keywords,omitempty"`
	Error    string `json:"error,omitempty"`
}
