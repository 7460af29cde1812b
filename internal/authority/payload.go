package authority

import (
	"strings"

	"taxlink/internal/domain"
	"taxlink/internal/port"
)

const invoiceDateLayout = "2006-01-02"

// BuildPayload converts an invoice and its items into the authority's
// submission shape. Rate labels are normalized and extra tax is omitted when
// it is non-positive or the sale type is exempt/reduced.
func BuildPayload(inv *domain.Invoice) *port.InvoicePayload {
	payload := &port.InvoicePayload{
		InvoiceType:           inv.InvoiceType,
		InvoiceDate:           inv.InvoiceDate.Format(invoiceDateLayout),
		SellerNTNCNIC:         inv.SellerNTN,
		SellerBusinessName:    inv.SellerName,
		SellerProvince:        inv.SellerProvince,
		SellerAddress:         inv.SellerAddress,
		BuyerNTNCNIC:          inv.BuyerNTN,
		BuyerBusinessName:     inv.BuyerName,
		BuyerProvince:         inv.BuyerProvince,
		BuyerAddress:          inv.BuyerAddress,
		BuyerRegistrationType: inv.BuyerRegistrationType,
		InvoiceRefNo:          inv.CompanyInvoiceRefNo,
	}

	for _, item := range inv.Items {
		line := port.InvoiceItemPayload{
			HSCode:             item.HSCode,
			ProductDescription: item.ProductName,
			Rate:               NormalizeRate(item.RateLabel, item.SaleType),
			UOM:                item.UOM,
			Quantity:           item.Quantity.String(),
			ValueSalesExclST:   item.ValueExclTax.String(),
			SalesTaxApplicable: item.SalesTax.String(),
			SalesTaxWithheld:   item.WithheldTax.String(),
			FurtherTax:         item.FurtherTax.String(),
			FEDPayable:         item.FEDPayable.String(),
			Discount:           item.Discount.String(),
			TotalValues:        item.TotalValues.String(),
			SaleType:           item.SaleType,
		}
		if includeExtraTax(item) {
			line.ExtraTax = item.ExtraTax.Decimal.String()
		}
		payload.Items = append(payload.Items, line)
	}
	return payload
}

// NormalizeRate maps a free-text catalog rate label to one of the three
// canonical tax rates. Percentage labels pass through; a currency-prefixed
// fixed rate ("Rs.5/bill") is replaced by the nearest canonical rate for the
// item's sale-type classification.
func NormalizeRate(label, saleType string) string {
	label = strings.TrimSpace(label)
	if label != "" && strings.HasSuffix(label, "%") {
		return label
	}
	switch {
	case domain.SaleTypeIsZeroRated(saleType):
		return domain.RateZero
	case domain.SaleTypeIsReduced(saleType):
		return domain.RateReduced
	default:
		return domain.RateStandard
	}
}

func includeExtraTax(item domain.InvoiceItem) bool {
	if !item.ExtraTax.Valid || item.ExtraTax.Decimal.Sign() <= 0 {
		return false
	}
	if domain.SaleTypeIsExempt(item.SaleType) || domain.SaleTypeIsReduced(item.SaleType) {
		return false
	}
	return true
}
