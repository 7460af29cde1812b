// Package ingest turns uploaded spreadsheet rows into canonical records for
// the bulk pipeline. Header aliasing, date parsing, and numeric coercion all
// happen once here, so downstream components never branch on alternate field
// names or malformed values.
package ingest

import "strings"

// RawRow is the canonical form of one uploaded line: one invoice item plus
// the invoice-level header fields it was uploaded with. All values are kept
// as strings; parsing happens during validation and build.
type RawRow struct {
	Index int // 1-based position in the upload, for error reporting

	CompanyInvoiceRefNo   string `json:"companyInvoiceRefNo"`
	InvoiceType           string `json:"invoiceType"`
	InvoiceDate           string `json:"invoiceDate"`
	BuyerNTN              string `json:"buyerNTN"`
	BuyerName             string `json:"buyerName"`
	BuyerProvince         string `json:"buyerProvince"`
	BuyerAddress          string `json:"buyerAddress"`
	BuyerRegistrationType string `json:"buyerRegistrationType"`
	TransactionTypeID     string `json:"transactionTypeId"`

	ProductName string `json:"productName"`
	HSCode      string `json:"hsCode"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	ValueExclTax string `json:"valueExclTax"`
	SalesTax    string `json:"salesTax"`
	WithheldTax string `json:"withheldTax"`
	FurtherTax  string `json:"furtherTax"`
	FEDPayable  string `json:"fedPayable"`
	Discount    string `json:"discount"`
	ExtraTax    string `json:"extraTax"`
	TotalValues string `json:"totalValues"`
}

// headerAliases maps historical spreadsheet header names to canonical fields.
// Keys are normalized with normalizeHeader before lookup.
var headerAliases = map[string]string{
	"company invoice ref no": "companyInvoiceRefNo",
	"companyinvoicerefno":    "companyInvoiceRefNo",
	"invoice ref no":         "companyInvoiceRefNo",
	"ref no":                 "companyInvoiceRefNo",

	"invoice type": "invoiceType",
	"document type": "invoiceType",

	"invoice date": "invoiceDate",
	"date":         "invoiceDate",

	"buyer ntn":       "buyerNTN",
	"ntn":             "buyerNTN",
	"buyer ntn cnic":  "buyerNTN",
	"ntn cnic":        "buyerNTN",
	"buyer reg no":    "buyerNTN",

	"buyer name":          "buyerName",
	"buyer business name": "buyerName",
	"buyer province":      "buyerProvince",
	"buyer address":       "buyerAddress",
	"buyer registration type": "buyerRegistrationType",
	"registration type":       "buyerRegistrationType",

	"transaction type id": "transactionTypeID",
	"transaction type":    "transactionTypeID",

	"product name":        "productName",
	"product description": "productName",
	"item name":           "productName",
	"description":         "productName",

	"hs code":            "hsCode",
	"hscode":             "hsCode",
	"hs classification":  "hsCode",

	"quantity": "quantity",
	"qty":      "quantity",

	"unit price": "unitPrice",
	"rate value": "unitPrice",
	"price":      "unitPrice",

	"value excluding tax":       "valueExclTax",
	"value sales excluding st":  "valueExclTax",
	"value excl tax":            "valueExclTax",

	"sales tax":            "salesTax",
	"sales tax applicable": "salesTax",

	"withheld tax":                 "withheldTax",
	"sales tax withheld at source": "withheldTax",

	"further tax": "furtherTax",

	"fed payable":    "fedPayable",
	"federal excise": "fedPayable",

	"discount": "discount",

	"extra tax": "extraTax",

	"total values": "totalValues",
	"total value":  "totalValues",
	"total":        "totalValues",
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	h = strings.ReplaceAll(h, "-", " ")
	h = strings.ReplaceAll(h, "/", " ")
	h = strings.ReplaceAll(h, ".", "")
	return strings.Join(strings.Fields(h), " ")
}

// NormalizeRow converts a raw header->value map into a canonical RawRow.
// Unrecognized headers are ignored; values are trimmed.
func NormalizeRow(index int, fields map[string]string) RawRow {
	row := RawRow{Index: index}
	for header, value := range fields {
		canonical, ok := headerAliases[normalizeHeader(header)]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch canonical {
		case "companyInvoiceRefNo":
			row.CompanyInvoiceRefNo = value
		case "invoiceType":
			row.InvoiceType = value
		case "invoiceDate":
			row.InvoiceDate = value
		case "buyerNTN":
			row.BuyerNTN = value
		case "buyerName":
			row.BuyerName = value
		case "buyerProvince":
			row.BuyerProvince = value
		case "buyerAddress":
			row.BuyerAddress = value
		case "buyerRegistrationType":
			row.BuyerRegistrationType = value
		case "transactionTypeID":
			row.TransactionTypeID = value
		case "productName":
			row.ProductName = value
		case "hsCode":
			row.HSCode = value
		case "quantity":
			row.Quantity = value
		case "unitPrice":
			row.UnitPrice = value
		case "valueExclTax":
			row.ValueExclTax = value
		case "salesTax":
			row.SalesTax = value
		case "withheldTax":
			row.WithheldTax = value
		case "furtherTax":
			row.FurtherTax = value
		case "fedPayable":
			row.FEDPayable = value
		case "discount":
			row.Discount = value
		case "extraTax":
			row.ExtraTax = value
		case "totalValues":
			row.TotalValues = value
		}
	}
	return row
}
