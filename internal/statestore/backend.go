package statestore

import (
	"context"
	"errors"
)

//go:generate mockgen -source=$GOFILE -destination=backend_mocks_test.go -package=statestore_test

var ErrInvalidKey = errors.New("invalid state key")

// Backend is an opaque key/blob store. A missing key is not an error:
// Get reports it with found == false.
type Backend interface {
	Get(ctx context.Context, key string) (blob []byte, found bool, err error)
	Set(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
	Name() string
}
