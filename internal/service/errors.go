package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error a service returns either wraps one of these or is an
// internal failure.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("invalid reference")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
)

var (
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	ErrSellerNotFound   = fmt.Errorf("seller %w", ErrNotFound)
	ErrCartNotFound     = fmt.Errorf("cart %w", ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrListingNotFound  = fmt.Errorf("listing %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)

	ErrListingMismatch = fmt.Errorf("%w: listing belongs to a different product", ErrInvalidReference)

	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidInput)
	ErrInvalidPrice    = fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	ErrInvalidStock    = fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	ErrEmptyOrder      = fmt.Errorf("%w: order needs at least one item", ErrInvalidInput)

	ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrRoleInUse  = fmt.Errorf("%w: current role is still referenced by orders", ErrConflict)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrForbidden          = fmt.Errorf("%w: resource belongs to another user", ErrUnauthorized)
)
