package service

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
)

const (
	moneyPlaces = 2
	// unitPlaces is the stored scale of item quantity and price.
	unitPlaces = 4
)

// buildItems validates the requested lines and derives each amount as
// quantity x price rounded to cents. A supplied amount must match. Quantity
// and price finer than the stored scale are rejected rather than rounded.
func buildItems(genID *snowflake.Node, invoiceID snowflake.ID, drafts []domain.ItemDraft) ([]domain.InvoiceItem, error) {
	items := make([]domain.InvoiceItem, 0, len(drafts))
	for i, draft := range drafts {
		if draft.Quantity.IsNegative() || !fitsScale(draft.Quantity, unitPlaces) {
			return nil, domain.ErrInvalidQuantity
		}
		if draft.Price.IsNegative() || !fitsScale(draft.Price, unitPlaces) {
			return nil, domain.ErrInvalidPrice
		}

		amount := draft.Quantity.Mul(draft.Price).Round(moneyPlaces)
		if draft.Amount != nil && !draft.Amount.Round(moneyPlaces).Equal(amount) {
			return nil, domain.ErrAmountMismatch
		}

		items = append(items, domain.InvoiceItem{
			ID:          genID.Generate(),
			InvoiceID:   invoiceID,
			Position:    i,
			Description: draft.Description,
			Quantity:    draft.Quantity,
			Price:       draft.Price,
			Amount:      amount,
		})
	}
	return items, nil
}

// resolveTotal returns the invoice total. With items it must equal the sum of
// their amounts; without items the supplied total stands.
func resolveTotal(supplied *decimal.Decimal, items []domain.InvoiceItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		if supplied == nil {
			return decimal.Zero, nil
		}
		if supplied.IsNegative() {
			return decimal.Zero, domain.ErrInvalidTotal
		}
		return supplied.Round(moneyPlaces), nil
	}

	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount)
	}
	if supplied != nil && !supplied.Round(moneyPlaces).Equal(sum) {
		return decimal.Zero, domain.ErrTotalMismatch
	}
	return sum, nil
}

func fitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}
