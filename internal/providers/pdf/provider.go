// Package pdf renders invoice documents. The renderer variant is chosen once
// at construction by probing the PDF engine.
package pdf

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/observability/metrics"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	VariantRich  = "rich"
	VariantPlain = "plain"

	ContentType = "application/pdf"
)

// Document is the printable view of an invoice.
type Document struct {
	InvoiceNumber string
	ClientName    string
	Date          civil.Date
	Items         []Line
	Total         decimal.Decimal
	Currency      string
}

type Line struct {
	Description string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Amount      decimal.Decimal
}

type Renderer interface {
	Variant() string
	RenderInvoice(ctx context.Context, doc Document) ([]byte, error)
}

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// NewRenderer returns the rich renderer when the engine can produce a
// document with the configured font, and the plain renderer otherwise.
func NewRenderer(p Params) Renderer {
	log := p.Log.Named("pdf.renderer")

	rich, err := newRichRenderer(p.Config.PDFFontPath)
	if err == nil {
		err = rich.selfCheck()
	}
	if err != nil {
		log.Warn("pdf engine unavailable, using plain renderer",
			zap.String("font_path", p.Config.PDFFontPath),
			zap.Error(err),
		)
		return &instrumented{next: &plainRenderer{}, metrics: p.Metrics}
	}

	log.Info("pdf renderer ready", zap.String("variant", VariantRich))
	return &instrumented{next: rich, metrics: p.Metrics}
}

// Lines returns the text content both variants print, in order.
func Lines(doc Document) (header []string, items []string, total string) {
	currency := doc.Currency
	if currency == "" {
		currency = "$"
	}
	header = []string{
		"INVOICE #" + doc.InvoiceNumber,
		"Client: " + doc.ClientName,
		"Date: " + doc.Date.String(),
	}
	items = make([]string, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, fmt.Sprintf("%s - %s x %s%s = %s%s",
			item.Description,
			item.Quantity.String(),
			currency, item.Price.StringFixed(2),
			currency, item.Amount.StringFixed(2),
		))
	}
	total = "TOTAL: " + currency + doc.Total.StringFixed(2)
	return header, items, total
}

type instrumented struct {
	next    Renderer
	metrics *metrics.Metrics
}

func (r *instrumented) Variant() string { return r.next.Variant() }

func (r *instrumented) RenderInvoice(ctx context.Context, doc Document) ([]byte, error) {
	out, err := r.next.RenderInvoice(ctx, doc)
	if err != nil {
		return nil, err
	}
	r.metrics.RecordPDF(ctx, r.next.Variant())
	return out, nil
}
