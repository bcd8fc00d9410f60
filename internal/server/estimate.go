package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	estimatedomain "github.com/smallbiznis/invoicely/internal/estimate/domain"
)

type estimateRequest struct {
	ClientID       *string         `json:"client_id"`
	EstimateNumber string          `json:"estimate_number"`
	Status         string          `json:"status"`
	Total          decimal.Decimal `json:"total"`
	IssueDate      *string         `json:"issue_date"`
	ExpiryDate     *string         `json:"expiry_date"`
}

func (r estimateRequest) draft() (estimatedomain.Draft, error) {
	clientID, err := parseOptionalSnowflakeID("client_id", r.ClientID)
	if err != nil {
		return estimatedomain.Draft{}, err
	}
	issueDate, err := parseOptionalDate("issue_date", r.IssueDate)
	if err != nil {
		return estimatedomain.Draft{}, err
	}
	expiryDate, err := parseOptionalDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return estimatedomain.Draft{}, err
	}

	return estimatedomain.Draft{
		ClientID:       clientID,
		EstimateNumber: r.EstimateNumber,
		Status:         r.Status,
		Total:          r.Total,
		IssueDate:      issueDate,
		ExpiryDate:     expiryDate,
	}, nil
}

func (s *Server) ListEstimates(c *gin.Context) {
	items, err := s.estimateSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) CreateEstimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	draft, err := req.draft()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.estimateSvc.Create(c.Request.Context(), draft)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) GetEstimateByID(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.estimateSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdateEstimate(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	draft, err := req.draft()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.estimateSvc.Update(c.Request.Context(), id, draft)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteEstimate(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.estimateSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "deleted": true}})
}

func (s *Server) ConvertEstimate(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.estimateSvc.Convert(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}
