package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (Product, error)
	List(ctx context.Context) ([]Product, error)
}

var (
	ErrInvalidCaller = errors.New("invalid_caller")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
)
