package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/invoicely/internal/payment/domain"
)

type paymentRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     *string         `json:"payment_date"`
	PaymentMethod   *string         `json:"payment_method"`
	ReferenceNumber *string         `json:"reference_number"`
	Notes           *string         `json:"notes"`
}

func (r paymentRequest) draft() (paymentdomain.Draft, error) {
	paidOn, err := parseOptionalDate("payment_date", r.PaymentDate)
	if err != nil {
		return paymentdomain.Draft{}, err
	}
	return paymentdomain.Draft{
		Amount:      r.Amount,
		PaymentDate: paidOn,
		Method:      r.PaymentMethod,
		Reference:   r.ReferenceNumber,
		Notes:       r.Notes,
	}, nil
}

func (s *Server) ListPayments(c *gin.Context) {
	invoiceID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.paymentSvc.List(c.Request.Context(), invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) RecordPayment(c *gin.Context) {
	invoiceID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	draft, err := req.draft()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.paymentSvc.Record(c.Request.Context(), invoiceID, draft)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (s *Server) DeletePayment(c *gin.Context) {
	invoiceID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	paymentID, err := parseID(c.Param("paymentId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	balance, err := s.paymentSvc.Delete(c.Request.Context(), invoiceID, paymentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": paymentID.String(), "deleted": true, "invoice": balance}})
}
