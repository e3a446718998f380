package contract

import "errors"

// Sentinel errors shared across the metrics services and outer surfaces.
var (
	ErrEntityNotFound   = errors.New("entity not found")
	ErrInvalidDateRange = errors.New("start date must not be after end date")
	ErrUnknownMetric    = errors.New("unknown metric")
)
