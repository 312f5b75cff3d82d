package config

import "time"

// Application-wide constants organized by domain

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout = 30 * time.Second
	RecomputeTimeout    = 2 * time.Minute
	SweepTimeout        = 10 * time.Minute

	// Cache settings
	CacheExpiration       = 5 * time.Minute
	TotalsCacheExpiration = 1 * time.Minute
	CacheSize             = 10000

	// Batch processing
	SweepWorkers = 4
)

// Scoring Constants
const (
	// Level curve divisor: level = floor(sqrt(totalXP/XPPerLevelUnit)) + 1
	XPPerLevelUnit = 100
)

// Ranking Constants
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Integrity Constants
const (
	// SweepFixLimit is the most users a sweep will silently auto-fix;
	// above it the sweep reports critical instead of masking a bug.
	SweepFixLimit = 10
)
