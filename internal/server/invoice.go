package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/providers/pdf"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"go.uber.org/zap"
)

type invoiceItemRequest struct {
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	Amount      *decimal.Decimal `json:"amount"`
}

type invoiceRequest struct {
	ClientID      *string              `json:"client_id"`
	InvoiceNumber string               `json:"invoice_number"`
	Status        string               `json:"status"`
	Total         *decimal.Decimal     `json:"total"`
	DueDate       *string              `json:"due_date"`
	Notes         *string              `json:"notes"`
	Items         []invoiceItemRequest `json:"items"`
}

func (r invoiceRequest) draft() (invoicedomain.Draft, error) {
	clientID, err := parseOptionalSnowflakeID("client_id", r.ClientID)
	if err != nil {
		return invoicedomain.Draft{}, err
	}
	dueDate, err := parseOptionalDate("due_date", r.DueDate)
	if err != nil {
		return invoicedomain.Draft{}, err
	}

	items := make([]invoicedomain.ItemDraft, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, invoicedomain.ItemDraft{
			Description: item.Description,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Amount:      item.Amount,
		})
	}

	return invoicedomain.Draft{
		ClientID:      clientID,
		InvoiceNumber: r.InvoiceNumber,
		Status:        r.Status,
		Total:         r.Total,
		DueDate:       dueDate,
		Notes:         r.Notes,
		Items:         items,
	}, nil
}

func (s *Server) ListInvoices(c *gin.Context) {
	items, err := s.invoiceSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	draft, err := req.draft()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.invoiceSvc.Create(c.Request.Context(), draft)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	draft, err := req.draft()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.invoiceSvc.Update(c.Request.Context(), id, draft)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.invoiceSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "deleted": true}})
}

func (s *Server) SendInvoice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.invoiceSvc.Send(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	invoice, err := s.invoiceSvc.Get(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body, err := s.renderer.RenderInvoice(ctx, s.invoiceDocument(invoice))
	if err != nil {
		s.log.Error("render invoice pdf failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("variant", s.renderer.Variant()),
			zap.Error(err),
		)
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+pdf.InvoiceFilename(invoice.InvoiceNumber)+`"`)
	c.Header("Content-Length", strconv.Itoa(len(body)))
	c.Data(http.StatusOK, pdf.ContentType, body)
}

func (s *Server) invoiceDocument(invoice invoicedomain.Invoice) pdf.Document {
	doc := pdf.Document{
		InvoiceNumber: invoice.InvoiceNumber,
		Date:          civil.FromTime(s.clock.Now()),
		Total:         invoice.Total,
		Currency:      s.reporting.Get().CurrencySymbol,
		Items:         make([]pdf.Line, 0, len(invoice.Items)),
	}
	if invoice.ClientName != nil {
		doc.ClientName = *invoice.ClientName
	}
	for _, item := range invoice.Items {
		doc.Items = append(doc.Items, pdf.Line{
			Description: item.Description,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Amount:      item.Amount,
		})
	}
	return doc
}
