package pdf

import (
	"regexp"

	"github.com/gosimple/slug"
)

var safeNumber = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// InvoiceFilename is the attachment name for an invoice document. Numbers
// with characters unsafe in a header are slugified.
func InvoiceFilename(number string) string {
	if !safeNumber.MatchString(number) {
		number = slug.Make(number)
	}
	if number == "" {
		number = "invoice"
	}
	return "invoice_" + number + ".pdf"
}
