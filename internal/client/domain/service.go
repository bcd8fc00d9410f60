package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (Client, error)
	List(ctx context.Context) ([]Client, error)
	Counts(ctx context.Context) (Counts, error)
}

var (
	ErrInvalidCaller = errors.New("invalid_caller")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
)
