// ABOUTME: Output driver selection
// ABOUTME: Maps configured backend names to output drivers
package app

import (
	"fmt"

	"github.com/Resonate-Protocol/tonegen/internal/config"
	"github.com/Resonate-Protocol/tonegen/pkg/audio/output"
)

// NewOutput returns the driver named by cfg.Backend
func NewOutput(cfg config.Config) (output.Output, error) {
	switch cfg.Backend {
	case config.BackendMalgo:
		return output.NewMalgo(), nil
	case config.BackendOto:
		return output.NewOto(), nil
	case config.BackendPortAudio:
		return output.NewPortAudio(), nil
	case config.BackendWAV:
		return output.NewWAV(cfg.Output, cfg.Duration), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}
