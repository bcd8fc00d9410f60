package service

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/recurring/domain"
)

const (
	moneyPlaces = 2
	unitPlaces  = 4
)

func buildItems(genID *snowflake.Node, templateID snowflake.ID, drafts []domain.ItemDraft) ([]domain.RecurringInvoiceItem, error) {
	items := make([]domain.RecurringInvoiceItem, 0, len(drafts))
	for i, draft := range drafts {
		if draft.Quantity.IsNegative() || !draft.Quantity.Equal(draft.Quantity.Truncate(unitPlaces)) {
			return nil, domain.ErrInvalidQuantity
		}
		if draft.Price.IsNegative() || !draft.Price.Equal(draft.Price.Truncate(unitPlaces)) {
			return nil, domain.ErrInvalidPrice
		}
		items = append(items, domain.RecurringInvoiceItem{
			ID:                 genID.Generate(),
			RecurringInvoiceID: templateID,
			Position:           i,
			Description:        draft.Description,
			Quantity:           draft.Quantity,
			Price:              draft.Price,
			Amount:             draft.Quantity.Mul(draft.Price).Round(moneyPlaces),
		})
	}
	return items, nil
}

// resolveTotal follows the invoice rule: with lines the total is their sum
// and a supplied total must agree.
func resolveTotal(supplied *decimal.Decimal, items []domain.RecurringInvoiceItem) (decimal.Decimal, error) {
	if supplied != nil && supplied.IsNegative() {
		return decimal.Zero, domain.ErrInvalidTotal
	}
	if len(items) == 0 {
		if supplied == nil {
			return decimal.Zero, nil
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
