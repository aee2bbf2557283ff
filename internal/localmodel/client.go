// Package localmodel provides the in-process model backend for the engine.
// The active implementation is compiled via the "localmodel" build tag
// (build with -tags localmodel); the default build exposes the same
// constructor returning ErrUnavailable so call sites stay unconditional.
package localmodel

import "errors"

// ErrUnavailable is returned by New when the binary was built without
// local model support. Distinct from configuration errors so operators
// can tell a missing capability from a missing model directory.
var ErrUnavailable = errors.New("local model support not compiled in (build with -tags localmodel)")

// Config configures the local model client.
type Config struct {
	ModelDir    string
	Temperature float64
	MaxTokens   int
}
