package service

import "errors"

var (
	// validation errors, rejected before any query runs
	ErrMissingUser        = errors.New("error user id is required")
	ErrInvalidStock       = errors.New("error stock id is required")
	ErrInvalidPrice       = errors.New("error price must be positive")
	ErrInvalidQuantity    = errors.New("error quantity must be at least 1")
	ErrEmptyLeagueName    = errors.New("error league name is required")
	ErrInvalidTimeRange   = errors.New("error start time must not be after finish time")
	ErrInvalidDraftRounds = errors.New("error draft rounds must be at least 1 when drafting is enabled")
	ErrInvalidLeagueID    = errors.New("error league id is required")
	ErrInvalidScope       = errors.New("error scope must name solo or a league")

	// business-rule rejections
	ErrInsufficientFunds = errors.New("error insufficient reserve value")
	ErrOwnershipMismatch = errors.New("error portfolio does not belong to user")
	ErrAlreadyJoined     = errors.New("error user already has a portfolio in this league")

	ErrPortfolioNotFound = errors.New("error portfolio not found")
	ErrStockNotFound     = errors.New("error stock not found")
	ErrLeagueNotFound    = errors.New("error league not found")
	ErrNoLeagueID        = errors.New("error league creation did not return an id")

	ErrNotImplemented = errors.New("error operation is not implemented")
)
