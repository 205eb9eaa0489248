package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/hsmoadigest/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the application configuration
type Config struct {
	// Delivery
	WebhookURL string `validate:"required,url"`

	// Filters, all optional
	ShopText        string
	ShopLogo        string `validate:"omitempty,regexp"`
	CategoryText    string
	CategoryLogo    string `validate:"omitempty,regexp"`
	CategoryKeyword string `validate:"omitempty,regexp"`

	// Target page and browser
	TargetURL     string `validate:"required,url"`
	BrowserEngine string `validate:"oneof=playwright chromedp"`
	BrowserProxy  string `validate:"omitempty,url"`

	// Bounded waits
	NavigationTimeout time.Duration `validate:"gt=0"`
	NavigationRetries int           `validate:"min=1,max=10"`
	NavigationBackoff time.Duration `validate:"gte=0"`
	ScrollMaxRounds   int           `validate:"min=1"`
	ScrollSettle      time.Duration `validate:"gte=0"`
	FilterSettle      time.Duration `validate:"gte=0"`

	// Output bounds
	MaxRows        int `validate:"min=1"`
	DigestMaxLines int `validate:"min=1"`

	// Optional schedule stream; empty RedisAddr disables it
	RedisAddr            string
	RedisDB              int `validate:"min=0"`
	RedisStream          string
	RedisStreamMaxLength int `validate:"min=1"`

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		WebhookURL:           strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL")),
		ShopText:             strings.TrimSpace(os.Getenv("HSMOA_SHOP_TEXT")),
		ShopLogo:             strings.TrimSpace(os.Getenv("HSMOA_SHOP_LOGO")),
		CategoryText:         strings.TrimSpace(os.Getenv("HSMOA_CATEGORY_TEXT")),
		CategoryLogo:         strings.TrimSpace(os.Getenv("HSMOA_CATEGORY_LOGO")),
		CategoryKeyword:      strings.TrimSpace(os.Getenv("HSMOA_CATEGORY_KEYWORD")),
		TargetURL:            getEnv("HSMOA_URL", "https://hsmoa.com/"),
		BrowserEngine:        strings.ToLower(getEnv("BROWSER_ENGINE", "playwright")),
		BrowserProxy:         getEnv("BROWSER_PROXY", ""),
		NavigationTimeout:    time.Duration(getEnvInt("NAVIGATION_TIMEOUT_SECONDS", 60)) * time.Second,
		NavigationRetries:    getEnvInt("NAVIGATION_RETRIES", 3),
		NavigationBackoff:    time.Duration(getEnvInt("NAVIGATION_BACKOFF_SECONDS", 2)) * time.Second,
		ScrollMaxRounds:      getEnvInt("SCROLL_MAX_ROUNDS", 25),
		ScrollSettle:         time.Duration(getEnvInt("SCROLL_SETTLE_MS", 600)) * time.Millisecond,
		FilterSettle:         time.Duration(getEnvInt("FILTER_SETTLE_MS", 600)) * time.Millisecond,
		MaxRows:              getEnvInt("MAX_ROWS", 500),
		DigestMaxLines:       getEnvInt("DIGEST_MAX_LINES", 80),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "hsmoa:schedule"),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		Environment:          getEnv("HSMOA_ENVIRONMENT", "development"),
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 패턴은 Go RE2 문법으로 컴파일되어야 함
	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile("(?i)" + fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the configuration. A missing webhook is reported before anything else.
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return apperrors.NewConfiguration("SLACK_WEBHOOK_URL is required", nil)
	}
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return apperrors.NewConfiguration("invalid settings: "+strings.Join(fields, ", "), err)
		}
		return apperrors.NewConfiguration("invalid settings", err)
	}
	return nil
}

// IsProduction reports whether the process runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
