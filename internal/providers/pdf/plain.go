package pdf

import (
	"bytes"
	"context"
)

// plainRenderer prints the document as text lines.
type plainRenderer struct{}

func (r *plainRenderer) Variant() string { return VariantPlain }

func (r *plainRenderer) RenderInvoice(_ context.Context, doc Document) ([]byte, error) {
	header, items, total := Lines(doc)

	var buf bytes.Buffer
	for _, line := range header {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	for _, line := range items {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.WriteString(total)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
