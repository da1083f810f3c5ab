package repository

import "errors"

var (
	ErrAlreadyExists    = errors.New("error already exists")
	ErrNotFound         = errors.New("error not found")
	ErrReserveTooLow    = errors.New("error reserve below requested debit")
	ErrMissingReference = errors.New("error referenced row does not exist")
)
