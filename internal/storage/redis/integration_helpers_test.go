package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

const defaultLocalIntegrationAddr = "localhost:6379"

func openRedisStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	candidates := []string{
		strings.TrimSpace(os.Getenv("CHECKOUT_REDIS_TEST_ADDR")),
		strings.TrimSpace(os.Getenv("CHECKOUT_REDIS_ADDR")),
		defaultLocalIntegrationAddr,
	}

	seen := map[string]struct{}{}
	var openErrs []string
	for _, addr := range candidates {
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		store, err := Open(ctx, addr, "", 0)
		cancel()
		if err == nil {
			t.Cleanup(func() {
				_ = store.Close()
			})
			return store
		}
		openErrs = append(openErrs, addr+": "+err.Error())
	}

	t.Skipf("redis is not available for integration tests: %s", strings.Join(openErrs, " | "))
	return nil
}
