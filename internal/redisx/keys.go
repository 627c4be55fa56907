package redisx

import "time"

const (
	// Cached statistics response: stats:transactions -> JSON body.
	// Invalidated whenever an order is placed.
	KeyStatistics = "stats:transactions"
)

var (
	TTLStatistics = 5 * time.Minute
)
