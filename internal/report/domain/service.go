package domain

import (
	"context"
	"errors"
)

type Service interface {
	DashboardStats(ctx context.Context) (DashboardStats, error)
	RevenueSeries(ctx context.Context, rng Range, order Order) ([]RevenuePoint, error)
	InvoiceAging(ctx context.Context) (AgingReport, error)
	ClientSummary(ctx context.Context) ([]ClientSummary, error)
	Export(ctx context.Context, kind ExportKind) (Table, error)
}

var (
	ErrInvalidCaller       = errors.New("invalid_caller")
	ErrInvalidRange        = errors.New("invalid_range")
	ErrInvalidOrder        = errors.New("invalid_order")
	ErrUnknownExportKind   = errors.New("unknown_export_kind")
	ErrUnknownExportFormat = errors.New("unknown_export_format")
)
