package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"
	"github.com/smallbiznis/invoicely/pkg/civil"
)

const customFontFamily = "invoice-font"

// richRenderer lays the document out with maroto.
type richRenderer struct {
	fonts []*entity.CustomFont
}

func newRichRenderer(fontPath string) (*richRenderer, error) {
	fontPath = strings.TrimSpace(fontPath)
	if fontPath == "" {
		return &richRenderer{}, nil
	}
	fonts, err := repository.New().
		AddUTF8Font(customFontFamily, fontstyle.Normal, fontPath).
		AddUTF8Font(customFontFamily, fontstyle.Bold, fontPath).
		Load()
	if err != nil {
		return nil, fmt.Errorf("load font %s: %w", fontPath, err)
	}
	return &richRenderer{fonts: fonts}, nil
}

func (r *richRenderer) Variant() string { return VariantRich }

// selfCheck renders a throwaway document to confirm the engine works here.
func (r *richRenderer) selfCheck() error {
	_, err := r.RenderInvoice(context.Background(), Document{
		InvoiceNumber: "CHECK",
		Date:          civil.New(2000, 1, 1),
	})
	return err
}

func (r *richRenderer) RenderInvoice(_ context.Context, doc Document) ([]byte, error) {
	builder := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		})
	if len(r.fonts) > 0 {
		builder = builder.
			WithCustomFonts(r.fonts).
			WithDefaultFont(&props.Font{Family: customFontFamily})
	}
	m := maroto.New(builder.Build())

	header, items, total := Lines(doc)

	m.AddRow(14,
		text.NewCol(12, header[0], props.Text{Size: 18, Style: fontstyle.Bold}),
	)
	m.AddRow(14,
		col.New(8).Add(
			text.New(header[1], props.Text{Top: 0}),
			text.New(header[2], props.Text{Top: 5}),
		),
		col.New(4),
	)

	for _, line := range items {
		m.AddRow(8, text.NewCol(12, line, props.Text{Size: 9}))
	}

	m.AddRow(12,
		text.NewCol(12, total, props.Text{Top: 4, Size: 12, Style: fontstyle.Bold}),
	)

	out, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return out.GetBytes(), nil
}
