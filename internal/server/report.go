package server

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	reportdomain "github.com/smallbiznis/invoicely/internal/report/domain"
)

const csvContentType = "text/csv; charset=utf-8"

func (s *Server) GetDashboardStats(c *gin.Context) {
	stats, err := s.reportSvc.DashboardStats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (s *Server) GetRevenue(c *gin.Context) {
	rng, err := reportdomain.ParseRange(c.Query("range"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	order, err := reportdomain.ParseOrder(c.Query("order"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	points, err := s.reportSvc.RevenueSeries(c.Request.Context(), rng, order)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": points})
}

func (s *Server) GetInvoiceAging(c *gin.Context) {
	report, err := s.reportSvc.InvoiceAging(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) GetClientSummary(c *gin.Context) {
	rows, err := s.reportSvc.ClientSummary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// Export writes the table as CSV by default, or as a JSON array of records.
func (s *Server) Export(c *gin.Context) {
	kind, err := reportdomain.ParseExportKind(c.Query("type"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	format, err := reportdomain.ParseExportFormat(c.Query("format"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	table, err := s.reportSvc.Export(ctx, kind)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if format == reportdomain.FormatJSON {
		s.obsMetrics.RecordExport(ctx, kind.String(), string(format))
		c.JSON(http.StatusOK, gin.H{"data": table.Records()})
		return
	}

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordExport(ctx, kind.String(), string(format))

	c.Header("Content-Disposition", `attachment; filename="`+kind.Filename()+`"`)
	c.Data(http.StatusOK, csvContentType, buf.Bytes())
}
