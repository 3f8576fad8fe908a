package constants

import "time"

var CacheTTL = struct {
	Verdict     time.Duration
	ImageLookup time.Duration
}{
	Verdict:     24 * time.Hour, // same guess for the same answer rarely changes
	ImageLookup: 7 * 24 * time.Hour,
}

var CacheLimits = struct {
	VerdictEntries int
	ImageBytes     int64
}{
	VerdictEntries: 512, // in-process entries before the oldest are dropped
	ImageBytes:     5 << 20,
}

var WebSocketConfig = struct {
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
}{
	MaxReconnectAttempts: 5,
	ReconnectDelay:       5 * time.Second,
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

var GameLimits = struct {
	MaxGuessLength   int
	GenerateTimeout  time.Duration
	JudgeTimeout     time.Duration
	StatsWindow      int
	MaxExcludedNames int
}{
	MaxGuessLength:   100,
	GenerateTimeout:  60 * time.Second,
	JudgeTimeout:     20 * time.Second,
	StatsWindow:      5,
	MaxExcludedNames: 50, // keeps the generation prompt bounded in long sessions
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    1 * time.Hour,
	HealthCheckInterval: 10 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var ImageConfig = struct {
	WikipediaBaseURL string
	PlaceholderURL   string
	Timeout          time.Duration
	UserAgent        string
}{
	WikipediaBaseURL: "https://%s.wikipedia.org/wiki/",
	PlaceholderURL:   "https://picsum.photos/seed/%s/400/300",
	Timeout:          8 * time.Second,
	UserAgent:        "quien-soy-bot/1.0 (+https://github.com/kapu/quien-soy-bot-go)",
}

var StringLimits = struct {
	Description int
	Hint        int
	HistoryName int
}{
	Description: 400,
	Hint:        300,
	HistoryName: 24,
}
