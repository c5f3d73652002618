package application

import "github.com/cockroachdb/errors"

// Failure kinds reported by a HeatzyClient. Adapters mark their errors with one
// of these, test with errors.Is.
var (
	ErrAuth      = errors.New("heatzy authentication failed")
	ErrTransport = errors.New("heatzy request failed")
	ErrProtocol  = errors.New("heatzy response not understood")
)
