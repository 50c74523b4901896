package store

//go:generate go run go.uber.org/mock/mockgen -destination store_mock.gen.go -package store . Store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetParameter when no value is stored under the name.
var ErrNotFound = errors.New("parameter not found")

// Store is the durable parameter store: a flat name -> string map. The
// dispatcher, server and main depend only on this interface.
type Store interface {
	// GetParameter returns the value stored under name, or ErrNotFound.
	GetParameter(ctx context.Context, name string) (string, error)
	// PutParameter stores value under name, overwriting any previous value.
	PutParameter(ctx context.Context, name, value string) error
	Ping(ctx context.Context) error
}

// Backend names accepted by config.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// ParameterDescription is stored alongside values by backends that keep one.
const ParameterDescription = "Keep track of the last commit already triggered"
