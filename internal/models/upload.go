package models

import (
	"context"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

// Fetcher writes an upload's payload on demand. Transports implement it so the
// payload is only transferred after pre-flight checks pass.
type Fetcher interface {
	Fetch(ctx context.Context, w io.Writer) (int64, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, w io.Writer) (int64, error)

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, w io.Writer) (int64, error) {
	return f(ctx, w)
}

// Upload describes a document offered by a user, before any bytes are read
type Upload struct {
	UserID   string  `json:"user_id" validate:"required"`
	Filename string  `json:"filename" validate:"required"`
	Size     int64   `json:"size" validate:"gte=0"`
	Source   Fetcher `json:"-" validate:"required"`
}

var uploadValidator = validator.New()

// Validate checks the upload metadata
func (u *Upload) Validate() error {
	if err := uploadValidator.Struct(u); err != nil {
		return fmt.Errorf("invalid upload: %w", err)
	}
	return nil
}
