package execution

import (
	"fmt"
	"os"
	"strings"

	"roxom_mm/internal/domain"
	"roxom_mm/internal/infra"
	"roxom_mm/internal/infra/roxom"
	"roxom_mm/internal/logger"
)

// Mode represents the trading execution mode
type Mode string

const (
	ModeReal  Mode = "REAL"
	ModePaper Mode = "PAPER"
	ModeMock  Mode = "MOCK"
)

// NewGateway returns the Gateway implementation for the configured mode.
// onUpdate is only used by the paper gateway, which has no private stream
// of its own. REAL mode refuses to start without the safety latch.
func NewGateway(cfg *infra.Config, onUpdate func(domain.OrderUpdate)) (Gateway, error) {
	mode := Mode(strings.ToUpper(cfg.Trading.Mode))
	log := logger.Get("execution")

	log.Infof("initializing execution gateway, mode: %s", mode)

	switch mode {
	case ModeReal:
		// SAFETY LATCH CHECK
		if os.Getenv("CONFIRM_REAL_MONEY") != "true" {
			err := fmt.Errorf("SAFETY_GUARD: real trading requires 'CONFIRM_REAL_MONEY=true' environment variable")
			log.Error(err.Error())
			panic(err) // Fail Fast
		}
		if cfg.API.Roxom.APIKey == "" {
			return nil, fmt.Errorf("real mode requires a Roxom API key")
		}
		log.Warn("🚨🚨🚨 Connecting to Roxom REAL 🚨🚨🚨")
		return roxom.NewClient(cfg.API.Roxom.APIKey, cfg.API.Roxom.RestURL), nil

	case ModePaper:
		return NewPaperGateway(onUpdate), nil

	case ModeMock:
		return NewMockGateway(), nil

	default:
		return nil, fmt.Errorf("unknown execution mode: %s", mode)
	}
}
