package config

import (
	"os"
	"testing"
	"time"

	apperrors "sjsage522/hsmoadigest/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range kv {
			os.Unsetenv(k)
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	config := LoadConfig()
	assert.Equal(t, "https://hsmoa.com/", config.TargetURL)
	assert.Equal(t, "playwright", config.BrowserEngine)
	assert.Equal(t, 60*time.Second, config.NavigationTimeout)
	assert.Equal(t, 3, config.NavigationRetries)
	assert.Equal(t, 2*time.Second, config.NavigationBackoff)
	assert.Equal(t, 25, config.ScrollMaxRounds)
	assert.Equal(t, 600*time.Millisecond, config.ScrollSettle)
	assert.Equal(t, 600*time.Millisecond, config.FilterSettle)
	assert.Equal(t, 500, config.MaxRows)
	assert.Equal(t, 80, config.DigestMaxLines)
	assert.Equal(t, "", config.RedisAddr)
	assert.Equal(t, "hsmoa:schedule", config.RedisStream)
}

func TestLoadConfigFromEnv(t *testing.T) {
	setEnv(t, map[string]string{
		"SLACK_WEBHOOK_URL":      "https://hooks.slack.com/services/T000/B000/XXX",
		"HSMOA_SHOP_LOGO":        "롯데홈쇼핑|GS ?SHOP",
		"HSMOA_CATEGORY_TEXT":    " 의류 ",
		"HSMOA_CATEGORY_KEYWORD": "니트|코트",
		"BROWSER_ENGINE":         "ChromeDP",
		"SCROLL_MAX_ROUNDS":      "10",
		"SCROLL_SETTLE_MS":       "250",
		"MAX_ROWS":               "not-a-number",
	})

	config := LoadConfig()
	assert.Equal(t, "롯데홈쇼핑|GS ?SHOP", config.ShopLogo)
	assert.Equal(t, "의류", config.CategoryText)
	assert.Equal(t, "니트|코트", config.CategoryKeyword)
	assert.Equal(t, "chromedp", config.BrowserEngine)
	assert.Equal(t, 10, config.ScrollMaxRounds)
	assert.Equal(t, 250*time.Millisecond, config.ScrollSettle)
	assert.Equal(t, 500, config.MaxRows)
	require.NoError(t, config.Validate())
}

func TestValidateMissingWebhook(t *testing.T) {
	config := LoadConfig()
	config.WebhookURL = ""

	err := config.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConfiguration))
	assert.Contains(t, err.Error(), "SLACK_WEBHOOK_URL")
}

func TestValidateRejectsBadSettings(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"bad shop pattern", func(c *Config) { c.ShopLogo = "롯데(" }, "ShopLogo"},
		{"bad keyword pattern", func(c *Config) { c.CategoryKeyword = "[a-" }, "CategoryKeyword"},
		{"unknown engine", func(c *Config) { c.BrowserEngine = "selenium" }, "BrowserEngine"},
		{"zero rounds", func(c *Config) { c.ScrollMaxRounds = 0 }, "ScrollMaxRounds"},
		{"zero retries", func(c *Config) { c.NavigationRetries = 0 }, "NavigationRetries"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := LoadConfig()
			config.WebhookURL = "https://hooks.slack.com/services/T000/B000/XXX"
			tc.mutate(config)

			err := config.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConfiguration))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}
