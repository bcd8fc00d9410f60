package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/pkg/civil"
)

type Draft struct {
	ClientID       *snowflake.ID
	EstimateNumber string
	Status         string
	Total          decimal.Decimal
	IssueDate      *civil.Date
	ExpiryDate     *civil.Date
}

type ConvertResult struct {
	Estimate      Estimate     `json:"estimate"`
	InvoiceID     snowflake.ID `json:"invoice_id"`
	InvoiceNumber string       `json:"invoice_number"`
}

type Service interface {
	Create(ctx context.Context, draft Draft) (Estimate, error)
	Update(ctx context.Context, id snowflake.ID, draft Draft) (Estimate, error)
	Get(ctx context.Context, id snowflake.ID) (Estimate, error)
	List(ctx context.Context) ([]Estimate, error)
	Delete(ctx context.Context, id snowflake.ID) error
	// Convert turns the estimate into a draft invoice in one transaction.
	Convert(ctx context.Context, id snowflake.ID) (ConvertResult, error)
}

var (
	ErrInvalidCaller     = errors.New("invalid_caller")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidTotal      = errors.New("invalid_total")
	ErrInvalidExpiryDate = errors.New("invalid_expiry_date")
	ErrAlreadyConverted  = errors.New("already_converted")
	ErrInvalidClientID   = errors.New("invalid_client_id")
	ErrNotFound          = errors.New("not_found")
)
