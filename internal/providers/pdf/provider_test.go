package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleDocument() Document {
	return Document{
		InvoiceNumber: "INV-1000",
		ClientName:    "Acme",
		Date:          civil.New(2024, 5, 10),
		Items: []Line{
			{
				Description: "Design",
				Quantity:    decimal.RequireFromString("2"),
				Price:       decimal.RequireFromString("50"),
				Amount:      decimal.RequireFromString("100"),
			},
			{
				Description: "Support",
				Quantity:    decimal.RequireFromString("1.5"),
				Price:       decimal.RequireFromString("10"),
				Amount:      decimal.RequireFromString("15"),
			},
		},
		Total: decimal.RequireFromString("115"),
	}
}

func TestLinesFormatContent(t *testing.T) {
	header, items, total := Lines(sampleDocument())

	assert.Equal(t, []string{"INVOICE #INV-1000", "Client: Acme", "Date: 2024-05-10"}, header)
	assert.Equal(t, []string{
		"Design - 2 x $50.00 = $100.00",
		"Support - 1.5 x $10.00 = $15.00",
	}, items)
	assert.Equal(t, "TOTAL: $115.00", total)
}

func TestMissingFontFallsBackToPlain(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	renderer := NewRenderer(Params{
		Config: config.Config{PDFFontPath: "/nonexistent/fonts/missing.ttf"},
		Log:    zap.New(core),
	})

	assert.Equal(t, VariantPlain, renderer.Variant())
	assert.Equal(t, 1, logs.FilterMessage("pdf engine unavailable, using plain renderer").Len())

	out, err := renderer.RenderInvoice(context.Background(), sampleDocument())
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "INVOICE #INV-1000\n")
	assert.Contains(t, body, "Client: Acme\n")
	assert.Contains(t, body, "Date: 2024-05-10\n")
	assert.Contains(t, body, "Design - 2 x $50.00 = $100.00\n")
	assert.Contains(t, body, "TOTAL: $115.00\n")
}

func TestDefaultFontUsesRichRenderer(t *testing.T) {
	renderer := NewRenderer(Params{Config: config.Config{}, Log: zap.NewNop()})
	require.Equal(t, VariantRich, renderer.Variant())

	out, err := renderer.RenderInvoice(context.Background(), sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestInvoiceFilename(t *testing.T) {
	assert.Equal(t, "invoice_INV-1000.pdf", InvoiceFilename("INV-1000"))
	assert.Equal(t, "invoice_inv-2024-07.pdf", InvoiceFilename("INV 2024/07"))
	assert.Equal(t, "invoice_invoice.pdf", InvoiceFilename(`"";`))
}
