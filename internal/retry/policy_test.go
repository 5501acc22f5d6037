package retry

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/teracrafts/huefy-go/internal/core"
)

var testConfig = Config{
	Enabled:       true,
	MaxRetries:    4,
	BackoffFactor: time.Second,
	MaxDelay:      10 * time.Second,
}

func TestBackoffSchedule(t *testing.T) {
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for attempt, expected := range want {
		assert.Equal(t, expected, Backoff(attempt, testConfig), "attempt %d", attempt)
	}
}

func TestBackoffHugeAttemptIsCapped(t *testing.T) {
	assert.Equal(t, 10*time.Second, Backoff(200, testConfig))
}

func TestBackoffJitterWithinTenPercent(t *testing.T) {
	cfg := testConfig
	cfg.Jitter = true
	for i := 0; i < 50; i++ {
		d := Backoff(2, cfg)
		assert.GreaterOrEqual(t, d, 4*time.Second)
		assert.Less(t, d, 4*time.Second+400*time.Millisecond)
	}
}

func TestShouldRetryRetryableKinds(t *testing.T) {
	kinds := []*core.Error{
		{Kind: core.KindNetwork},
		{Kind: core.KindTimeout},
		{Kind: core.KindRateLimit, Status: 429, RetryAfter: core.DefaultRetryAfter},
		{Kind: core.KindServer, Status: 503},
		{Kind: core.KindProvider, Status: 502},
	}
	for _, e := range kinds {
		t.Run(string(e.Kind), func(t *testing.T) {
			for attempt := 0; attempt < testConfig.MaxRetries; attempt++ {
				d := ShouldRetry(attempt, e, testConfig)
				assert.True(t, d.Retry)
				assert.Equal(t, Backoff(attempt, testConfig), d.Delay)
			}
			assert.False(t, ShouldRetry(testConfig.MaxRetries, e, testConfig).Retry)
		})
	}
}

func TestShouldRetryNeverRetriesPermanentKinds(t *testing.T) {
	kinds := []*core.Error{
		{Kind: core.KindAuthentication, Status: 401},
		{Kind: core.KindTemplateNotFound, Status: 404},
		{Kind: core.KindInvalidTemplateData, Status: 422},
		{Kind: core.KindInvalidRecipient, Status: 400},
		{Kind: core.KindValidation, Status: 400},
		{Kind: core.KindAPI, Status: 409},
		{Kind: core.KindCanceled},
		{Kind: core.KindProtocol},
	}
	for _, e := range kinds {
		assert.False(t, ShouldRetry(0, e, testConfig).Retry, string(e.Kind))
	}
}

func TestShouldRetryDisabled(t *testing.T) {
	cfg := testConfig
	cfg.Enabled = false
	assert.False(t, ShouldRetry(0, &core.Error{Kind: core.KindNetwork}, cfg).Retry)
}

func TestShouldRetryZeroBudget(t *testing.T) {
	cfg := testConfig
	cfg.MaxRetries = 0
	assert.False(t, ShouldRetry(0, &core.Error{Kind: core.KindTimeout}, cfg).Retry)
}

func TestShouldRetryHonorsRetryAfter(t *testing.T) {
	e := &core.Error{Kind: core.KindRateLimit, Status: 429, RetryAfter: 5 * time.Second, RetryAfterParsed: true}

	d := ShouldRetry(0, e, testConfig)
	assert.True(t, d.Retry)
	assert.Equal(t, 5*time.Second, d.Delay)

	// exponential delay already above retry-after wins
	d = ShouldRetry(3, e, testConfig)
	assert.Equal(t, 8*time.Second, d.Delay)

	long := &core.Error{Kind: core.KindRateLimit, Status: 429, RetryAfter: 45 * time.Second, RetryAfterParsed: true}
	assert.Equal(t, 45*time.Second, ShouldRetry(0, long, testConfig).Delay)
}

func TestShouldRetryHugeRetryAfterStaysAFloor(t *testing.T) {
	e := &core.Error{Kind: core.KindRateLimit, Status: 429, RetryAfter: time.Duration(math.MaxInt64), RetryAfterParsed: true}

	d := ShouldRetry(0, e, testConfig)
	assert.True(t, d.Retry)
	assert.Equal(t, time.Duration(math.MaxInt64), d.Delay)
}

func TestSleepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepElapses(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, Sleep(context.Background(), 0))
}
