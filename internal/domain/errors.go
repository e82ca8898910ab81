package domain

import "errors"

var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidFilter      = errors.New("invalid ledger filter")
	ErrRunInProgress      = errors.New("an ingestion run is already in progress")
	ErrListingFailed      = errors.New("listing input files failed")
	ErrReadFailed         = errors.New("reading input file failed")
	ErrArchiveUnavailable = errors.New("archive sink unavailable")
	ErrSinkUnavailable    = errors.New("structured sink unavailable")
	ErrLedgerUnavailable  = errors.New("ledger store unavailable")
)
