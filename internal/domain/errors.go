package domain

import "errors"

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrEmptyCatalog     = errors.New("empty catalog")
	ErrInvalidOptions   = errors.New("invalid options")
)
