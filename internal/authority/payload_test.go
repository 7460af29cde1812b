package authority

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"taxlink/internal/domain"
)

func TestNormalizeRate(t *testing.T) {
	// Percentage labels pass through untouched.
	assert.Equal(t, "18%", NormalizeRate("18%", "Goods at standard rate"))
	assert.Equal(t, "5%", NormalizeRate("5%", "Goods at standard rate"))

	// Fixed-rate labels map to the canonical rate for the sale type.
	assert.Equal(t, domain.RateStandard, NormalizeRate("Rs.5/bill", "Goods at standard rate"))
	assert.Equal(t, domain.RateReduced, NormalizeRate("Rs.5/bill", "Goods at Reduced Rate"))
	assert.Equal(t, domain.RateZero, NormalizeRate("Rs.5/bill", "Zero rated supplies"))
	assert.Equal(t, domain.RateZero, NormalizeRate("", "Exempt goods"))
	assert.Equal(t, domain.RateStandard, NormalizeRate("", "Goods at standard rate"))
}

func TestBuildPayload(t *testing.T) {
	txnType := int64(75)
	inv := &domain.Invoice{
		InvoiceType:         domain.InvoiceTypeSale,
		InvoiceDate:         time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		CompanyInvoiceRefNo: "REF-42",
		BuyerNTN:            "1234567",
		BuyerName:           "Acme Traders",
		BuyerProvince:       "Punjab",
		SellerNTN:           "7654321",
		SellerName:          "Seller Co",
		TransactionTypeID:   &txnType,
		Items: []domain.InvoiceItem{
			{
				ProductName:  "Cement",
				HSCode:       "2523.2900",
				UOM:          "KG",
				RateLabel:    "18%",
				SaleType:     "Goods at standard rate",
				Quantity:     decimal.RequireFromString("10"),
				ValueExclTax: decimal.RequireFromString("1000"),
				SalesTax:     decimal.RequireFromString("180"),
				TotalValues:  decimal.RequireFromString("1180"),
			},
		},
	}

	payload := BuildPayload(inv)

	assert.Equal(t, "Sale Invoice", payload.InvoiceType)
	assert.Equal(t, "2024-03-05", payload.InvoiceDate)
	assert.Equal(t, "1234567", payload.BuyerNTNCNIC)
	assert.Equal(t, "7654321", payload.SellerNTNCNIC)
	assert.Equal(t, "REF-42", payload.InvoiceRefNo)
	if assert.Len(t, payload.Items, 1) {
		item := payload.Items[0]
		assert.Equal(t, "2523.2900", item.HSCode)
		assert.Equal(t, "18%", item.Rate)
		assert.Equal(t, "1000", item.ValueSalesExclST)
		assert.Equal(t, "1180", item.TotalValues)
		assert.Empty(t, item.ExtraTax)
	}
}

func TestBuildPayload_ExtraTaxOmission(t *testing.T) {
	base := domain.InvoiceItem{
		SaleType: "Goods at standard rate",
		ExtraTax: decimal.NullDecimal{Decimal: decimal.RequireFromString("50"), Valid: true},
	}

	inv := &domain.Invoice{Items: []domain.InvoiceItem{base}}
	assert.Equal(t, "50", BuildPayload(inv).Items[0].ExtraTax)

	// Exempt and reduced sale types never carry extra tax.
	exempt := base
	exempt.SaleType = "Exempt goods"
	inv = &domain.Invoice{Items: []domain.InvoiceItem{exempt}}
	assert.Empty(t, BuildPayload(inv).Items[0].ExtraTax)

	reduced := base
	reduced.SaleType = "Goods at Reduced Rate"
	inv = &domain.Invoice{Items: []domain.InvoiceItem{reduced}}
	assert.Empty(t, BuildPayload(inv).Items[0].ExtraTax)

	// Zero or invalid extra tax is omitted regardless of sale type.
	zero := base
	zero.ExtraTax = decimal.NullDecimal{Decimal: decimal.Zero, Valid: true}
	inv = &domain.Invoice{Items: []domain.InvoiceItem{zero}}
	assert.Empty(t, BuildPayload(inv).Items[0].ExtraTax)
}
