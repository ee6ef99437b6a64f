package cfg

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

// Config adds service-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int

	Keywords             string
	CheckIntervalMinutes int
	SentimentThreshold   float64

	DatabaseURL string
	SQLitePath  string

	TwitterBearerToken string
	RedditUserAgent    string

	ClassifierEndpoint string
	ClassifierToken    string
	ClaudeAPIKey       string
	ClaudeModel        string

	SlackWebhookURL string
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	AlertEmailFrom  string
	AlertEmailTo    string

	RulesFile string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.Keywords, "keywords", "", "comma-separated brand keywords to monitor (required)")
	fs.IntVar(&c.CheckIntervalMinutes, "check-interval-minutes", 15, "minutes between monitoring cycles (1..1440)")
	fs.Float64Var(&c.SentimentThreshold, "sentiment-threshold", -0.3, "normalized sentiment at or below which alerts fire (-1..1)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = SQLite store)")
	fs.StringVar(&c.SQLitePath, "sqlite-path", "pulse.db", "SQLite database path when no database-url is set (empty = in-memory store)")
	fs.StringVar(&c.TwitterBearerToken, "twitter-bearer-token", "", "Twitter API v2 bearer token (empty = Twitter source disabled)")
	fs.StringVar(&c.RedditUserAgent, "reddit-user-agent", "pulse-monitor/1.0", "User-Agent header for Reddit requests")
	fs.StringVar(&c.ClassifierEndpoint, "classifier-endpoint", "", "HTTP sentiment classifier endpoint (Hugging Face inference style)")
	fs.StringVar(&c.ClassifierToken, "classifier-token", "", "bearer token for the sentiment classifier endpoint")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude fallback classifier")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model for the fallback classifier")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for notifications (empty = Slack channel disabled)")
	fs.StringVar(&c.SMTPHost, "smtp-host", "", "SMTP host for email notifications (empty = email channel disabled)")
	fs.IntVar(&c.SMTPPort, "smtp-port", 587, "SMTP port (1..65535)")
	fs.StringVar(&c.SMTPUsername, "smtp-username", "", "SMTP username (empty = unauthenticated)")
	fs.StringVar(&c.SMTPPassword, "smtp-password", "", "SMTP password")
	fs.StringVar(&c.AlertEmailFrom, "alert-email-from", "", "From address for email notifications")
	fs.StringVar(&c.AlertEmailTo, "alert-email-to", "", "recipient address for email notifications")
	fs.StringVar(&c.RulesFile, "rules-file", "", "YAML file overriding the built-in recommendation rules (empty = builtins)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// At least one non-empty keyword is needed to monitor anything
	if len(c.KeywordList()) == 0 {
		errs = append(errs, errors.New("KEYWORDS is required"))
	}

	if c.CheckIntervalMinutes <= 0 || c.CheckIntervalMinutes > 1440 {
		errs = append(errs, fmt.Errorf("invalid CHECK_INTERVAL_MINUTES %d (must be 1..1440)", c.CheckIntervalMinutes))
	}

	if c.SentimentThreshold < -1 || c.SentimentThreshold > 1 {
		errs = append(errs, fmt.Errorf("invalid SENTIMENT_THRESHOLD %g (must be -1..1)", c.SentimentThreshold))
	}

	// A sentiment backend is required: the HTTP classifier or Claude
	if c.ClassifierEndpoint == "" && c.ClaudeAPIKey == "" {
		errs = append(errs, errors.New("CLASSIFIER_ENDPOINT or CLAUDE_API_KEY is required"))
	}
	if c.ClaudeAPIKey != "" && c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required when CLAUDE_API_KEY is set"))
	}

	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid SMTP_PORT %d (must be 1..65535)", c.SMTPPort))
	}

	// Email channel needs addressing when enabled
	if c.SMTPHost != "" && (c.AlertEmailTo == "" || c.AlertEmailFrom == "") {
		errs = append(errs, errors.New("ALERT_EMAIL_TO and ALERT_EMAIL_FROM are required when SMTP_HOST is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// KeywordList splits the comma-separated keywords flag, trimming whitespace
// and dropping empty entries.
func (c *Config) KeywordList() []string {
	var out []string
	for _, kw := range strings.Split(c.Keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
