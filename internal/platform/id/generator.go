package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs, e.g. the origin tag of an execution context.
type Generator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}

	return v.String(), nil
}

// Static always returns the same id; used to pin an origin in tests.
type Static string

func (s Static) NewID() (string, error) {
	if s == "" {
		return "", fmt.Errorf("static id is empty")
	}
	return string(s), nil
}
