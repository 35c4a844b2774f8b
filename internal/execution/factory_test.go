package execution

import (
	"testing"

	"roxom_mm/internal/infra"
)

func testConfig(mode string) *infra.Config {
	cfg := &infra.Config{}
	cfg.Trading.Mode = mode
	cfg.API.Roxom.RestURL = "https://api.roxom.io"
	cfg.API.Roxom.APIKey = "test-key"
	return cfg
}

func TestNewGateway_Modes(t *testing.T) {
	if g, err := NewGateway(testConfig("PAPER"), nil); err != nil {
		t.Errorf("PAPER: %v", err)
	} else if _, ok := g.(*PaperGateway); !ok {
		t.Errorf("PAPER returned %T", g)
	}

	if g, err := NewGateway(testConfig("mock"), nil); err != nil {
		t.Errorf("MOCK: %v", err)
	} else if _, ok := g.(*MockGateway); !ok {
		t.Errorf("MOCK returned %T", g)
	}

	if _, err := NewGateway(testConfig("YOLO"), nil); err == nil {
		t.Error("unknown mode should fail")
	}
}

func TestNewGateway_RealRequiresSafetyLatch(t *testing.T) {
	t.Setenv("CONFIRM_REAL_MONEY", "")

	defer func() {
		if r := recover(); r == nil {
			t.Error("REAL mode without CONFIRM_REAL_MONEY must panic")
		}
	}()
	NewGateway(testConfig("REAL"), nil)
}

func TestNewGateway_RealWithLatch(t *testing.T) {
	t.Setenv("CONFIRM_REAL_MONEY", "true")

	g, err := NewGateway(testConfig("REAL"), nil)
	if err != nil {
		t.Fatalf("REAL with latch: %v", err)
	}
	if g == nil {
		t.Fatal("expected live gateway")
	}

	cfg := testConfig("REAL")
	cfg.API.Roxom.APIKey = ""
	if _, err := NewGateway(cfg, nil); err == nil {
		t.Error("REAL mode without api key should fail")
	}
}
