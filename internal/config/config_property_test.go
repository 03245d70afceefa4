package config

import (
	"fmt"
	"os"
	"testing"

	"pgregory.net/rapid"
)

func TestProperty_FeeRateWithinBoundsParses(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clearRapidEnv()
		defer clearRapidEnv()

		fee := rapid.IntRange(0, 10000).Draw(t, "fee")
		os.Setenv("FEE_BPS", fmt.Sprintf("%d", fee))

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() failed for FEE_BPS=%d: %v", fee, err)
		}
		if cfg.FeeRateBP != int64(fee) {
			t.Fatalf("FeeRateBP = %d, want %d", cfg.FeeRateBP, fee)
		}
	})
}

func TestProperty_FeeRateOutOfBoundsFails(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clearRapidEnv()
		defer clearRapidEnv()

		fee := rapid.OneOf(
			rapid.IntRange(-1000, -1),
			rapid.IntRange(10001, 100000),
		).Draw(t, "fee")
		os.Setenv("FEE_BPS", fmt.Sprintf("%d", fee))

		if _, err := Load(); err == nil {
			t.Fatalf("Load() should fail for FEE_BPS=%d", fee)
		}
	})
}

// clearRapidEnv unsets the env vars the property tests touch. rapid
// checks cannot use t.Setenv, so cleanup is explicit.
func clearRapidEnv() {
	for _, key := range []string{"FEE_BPS", "PORT", "LOG_LEVEL"} {
		os.Unsetenv(key)
	}
}
