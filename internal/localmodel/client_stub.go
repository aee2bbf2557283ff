//go:build !localmodel

package localmodel

import "github.com/robitlab/robit/internal/providers"

// Available reports whether local model support is compiled in.
func Available() bool { return false }

// New always fails in builds without the localmodel tag.
func New(cfg Config) (providers.Provider, error) {
	return nil, ErrUnavailable
}
