package collector

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rharvest/reddit-harvester/internal/config"
	"github.com/rharvest/reddit-harvester/internal/domain"
)

// Mode selects the collector implementation.
type Mode string

const (
	ModeAPI    Mode = "api"
	ModePublic Mode = "public"
	ModeMock   Mode = "mock"
)

// ErrUnknownMode indicates an unrecognized collector mode tag.
var ErrUnknownMode = errors.New("unknown collector mode")

// New selects the correct implementation for mode. minDelay is the
// enforced minimum spacing between remote calls.
func New(mode Mode, cfg *config.Config, minDelay time.Duration, logger *slog.Logger) (domain.Collector, error) {
	switch mode {
	case ModeAPI:
		return NewAPIClient(cfg.Credentials, minDelay, logger)
	case ModePublic:
		return NewPublicClient(cfg.UserAgent, minDelay, logger)
	case ModeMock:
		return NewMock(), nil
	}
	return nil, fmt.Errorf("%w: %q (use api, public or mock)", ErrUnknownMode, string(mode))
}
