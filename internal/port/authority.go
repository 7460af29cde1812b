package port

import "context"

// InvoicePayload is the authority-shaped submission body for one invoice.
type InvoicePayload struct {
	InvoiceType         string               `json:"invoiceType"`
	InvoiceDate         string               `json:"invoiceDate"`
	SellerNTNCNIC       string               `json:"sellerNTNCNIC"`
	SellerBusinessName  string               `json:"sellerBusinessName"`
	SellerProvince      string               `json:"sellerProvince"`
	SellerAddress       string               `json:"sellerAddress"`
	BuyerNTNCNIC        string               `json:"buyerNTNCNIC"`
	BuyerBusinessName   string               `json:"buyerBusinessName"`
	BuyerProvince       string               `json:"buyerProvince"`
	BuyerAddress        string               `json:"buyerAddress"`
	BuyerRegistrationType string             `json:"buyerRegistrationType"`
	InvoiceRefNo        string               `json:"invoiceRefNo"`
	Items               []InvoiceItemPayload `json:"items"`
}

// InvoiceItemPayload is one line of an authority submission.
type InvoiceItemPayload struct {
	HSCode            string  `json:"hsCode"`
	ProductDescription string `json:"productDescription"`
	Rate              string  `json:"rate"`
	UOM               string  `json:"uoM"`
	Quantity          string  `json:"quantity"`
	ValueSalesExclST  string  `json:"valueSalesExcludingST"`
	SalesTaxApplicable string `json:"salesTaxApplicable"`
	SalesTaxWithheld  string  `json:"salesTaxWithheldAtSource"`
	FurtherTax        string  `json:"furtherTax"`
	FEDPayable        string  `json:"fedPayable"`
	Discount          string  `json:"discount"`
	TotalValues       string  `json:"totalValues"`
	SaleType          string  `json:"saleType"`
	ExtraTax          string  `json:"extraTax,omitempty"`
}

// AuthorityReply is the raw outcome of one authority round-trip. The body is
// deliberately untyped: the authority's responses are not type-stable and are
// interpreted by the response classifier.
type AuthorityReply struct {
	StatusCode int
	Body       []byte
}

// AuthorityClient posts invoice data to the external tax authority. One call
// per invocation; retry policy is the caller's concern.
type AuthorityClient interface {
	PostInvoice(ctx context.Context, payload *InvoicePayload) (*AuthorityReply, error)
}
