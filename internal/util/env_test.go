package util_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github/chapool/go-remote-wallet/internal/util"
)

func TestGetEnvAsStringArr(t *testing.T) {
	t.Setenv("TEST_RELAY_ENDPOINTS", " http://a:8545, ,http://b:8545 ")
	assert.Equal(t, []string{"http://a:8545", "http://b:8545"}, util.GetEnvAsStringArr("TEST_RELAY_ENDPOINTS", nil))

	t.Setenv("TEST_RELAY_ENDPOINTS", "")
	assert.Equal(t, []string{"fallback"}, util.GetEnvAsStringArr("TEST_RELAY_ENDPOINTS", []string{"fallback"}))

	t.Setenv("TEST_RELAY_ENDPOINTS", "a|b")
	assert.Equal(t, []string{"a", "b"}, util.GetEnvAsStringArr("TEST_RELAY_ENDPOINTS", nil, "|"))
}

func TestGetEnvAsTypedFallbacks(t *testing.T) {
	t.Setenv("TEST_UINT", "not-a-number")
	assert.Equal(t, uint64(7), util.GetEnvAsUint64("TEST_UINT", 7))

	t.Setenv("TEST_UINT", "18446744073709551615")
	assert.Equal(t, uint64(18446744073709551615), util.GetEnvAsUint64("TEST_UINT", 7))

	t.Setenv("TEST_DURATION", "1500ms")
	assert.Equal(t, 1500*time.Millisecond, util.GetEnvAsDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_BOOL", "maybe")
	assert.True(t, util.GetEnvAsBool("TEST_BOOL", true))
}

func TestGetEnvEnum(t *testing.T) {
	allowed := []string{"memory", "postgres"}

	t.Setenv("TEST_STORE", "redis")
	assert.Equal(t, "memory", util.GetEnvEnum("TEST_STORE", "memory", allowed))

	t.Setenv("TEST_STORE", "postgres")
	assert.Equal(t, "postgres", util.GetEnvEnum("TEST_STORE", "memory", allowed))
}

func TestIsStructInitialized(t *testing.T) {
	type deps struct {
		Name    string
		Skipped *int `wire:"-"`
		hidden  int
	}

	assert.NoError(t, util.IsStructInitialized(&deps{Name: "x"}))
	assert.Error(t, util.IsStructInitialized(&deps{}))
	assert.Error(t, util.IsStructInitialized(42))
}
