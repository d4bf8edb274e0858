package graphql

import "fmt"

// LimitConfig bounds list results
type LimitConfig struct {
	DefaultLimit int // used when a query gives no limit
	MaxLimit     int
}

// DefaultLimits applies when Config.Limits is left zero
var DefaultLimits = LimitConfig{DefaultLimit: 20, MaxLimit: 100}

// Validate checks that both limits are positive and ordered
func (l LimitConfig) Validate() error {
	switch {
	case l.MaxLimit <= 0:
		return fmt.Errorf("max limit must be greater than 0, got %d", l.MaxLimit)
	case l.DefaultLimit <= 0:
		return fmt.Errorf("default limit must be greater than 0, got %d", l.DefaultLimit)
	case l.DefaultLimit > l.MaxLimit:
		return fmt.Errorf("default limit (%d) cannot exceed max limit (%d)", l.DefaultLimit, l.MaxLimit)
	}
	return nil
}

// clamp resolves a requested limit. Negative means the default and zero
// means an empty list.
func (l LimitConfig) clamp(requested int) int {
	switch {
	case requested < 0:
		return l.DefaultLimit
	case requested > l.MaxLimit:
		return l.MaxLimit
	}
	return requested
}
