package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	recurringdomain "github.com/smallbiznis/invoicely/internal/recurring/domain"
)

type recurringItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// recurringRequest keeps a missing items key distinct from an empty list.
type recurringRequest struct {
	ClientID          *string                `json:"client_id"`
	Interval          string                 `json:"interval"`
	IntervalCount     *int                   `json:"interval_count"`
	StartDate         *string                `json:"start_date"`
	EndDate           *string                `json:"end_date"`
	LastRun           *string                `json:"last_run"`
	Status            string                 `json:"status"`
	Total             *decimal.Decimal       `json:"total"`
	SendAutomatically bool                   `json:"send_automatically"`
	Items             []recurringItemRequest `json:"items"`
}

func (r recurringRequest) draft() (recurringdomain.Draft, error) {
	clientID, err := parseOptionalSnowflakeID("client_id", r.ClientID)
	if err != nil {
		return recurringdomain.Draft{}, err
	}
	startDate, err := parseOptionalDate("start_date", r.StartDate)
	if err != nil {
		return recurringdomain.Draft{}, err
	}
	endDate, err := parseOptionalDate("end_date", r.EndDate)
	if err != nil {
		return recurringdomain.Draft{}, err
	}
	lastRun, err := parseOptionalDate("last_run", r.LastRun)
	if err != nil {
		return recurringdomain.Draft{}, err
	}

	var items []recurringdomain.ItemDraft
	if r.Items != nil {
		items = make([]recurringdomain.ItemDraft, 0, len(r.Items))
		for _, item := range r.Items {
			items = append(items, recurringdomain.ItemDraft{
				Description: item.Description,
				Quantity:    item.Quantity,
				Price:       item.Price,
			})
		}
	}

	return recurringdomain.Draft{
		ClientID:          clientID,
		Interval:          r.Interval,
		IntervalCount:     r.IntervalCount,
		StartDate:         startDate,
		EndDate:           endDate,
		LastRun:           lastRun,
		Status:            r.Status,
		Total:             r.Total,
		SendAutomatically: r.SendAutomatically,
		Items:             items,
	}, nil
}

func (s *Server) ListRecurring(c *gin.Context) {
	items, err := s.recurringSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) CreateRecurring(c *gin.Context) {
	var req recurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	draft, err := req.draft()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.recurringSvc.Create(c.Request.Context(), draft)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) GetRecurringByID(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.recurringSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdateRecurring(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req recurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	draft, err := req.draft()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.recurringSvc.Update(c.Request.Context(), id, draft)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteRecurring(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.recurringSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "deleted": true}})
}
