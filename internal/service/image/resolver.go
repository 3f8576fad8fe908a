package image

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/quien-soy-bot-go/internal/constants"
	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"go.uber.org/zap"
)

// Store is an optional shared memo for resolved URLs.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Config struct {
	// Language selects the encyclopedia edition, e.g. "es".
	Language string
	// BaseURL overrides the article URL prefix. %s is replaced by Language.
	BaseURL        string
	PlaceholderURL string
	Timeout        time.Duration
	Disabled       bool
}

// Resolver finds an illustrative image for a character. It reads the
// og:image of the encyclopedia article named by the character's image query
// and falls back to a deterministic placeholder.
type Resolver struct {
	httpClient *http.Client
	cfg        Config
	store      Store
	storeTTL   time.Duration
	logger     *zap.Logger
	mu         sync.Mutex
	memo       map[string]string
}

func NewResolver(cfg Config, store Store, logger *zap.Logger) *Resolver {
	if cfg.Language == "" {
		cfg.Language = "es"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.ImageConfig.WikipediaBaseURL
	}
	if cfg.PlaceholderURL == "" {
		cfg.PlaceholderURL = constants.ImageConfig.PlaceholderURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.ImageConfig.Timeout
	}
	return &Resolver{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		store:      store,
		storeTTL:   constants.CacheTTL.ImageLookup,
		logger:     logger,
		memo:       make(map[string]string),
	}
}

// Resolve never fails: lookup errors yield the placeholder.
func (r *Resolver) Resolve(ctx context.Context, character *domain.Character) string {
	if character == nil {
		return ""
	}
	placeholder := r.Placeholder(character.Name)
	query := strings.TrimSpace(character.ImageQuery)
	if query == "" {
		query = character.Name
	}
	if r.cfg.Disabled || query == "" {
		return placeholder
	}

	cacheKey := "image:" + r.cfg.Language + ":" + strings.ToLower(query)

	r.mu.Lock()
	cached, ok := r.memo[cacheKey]
	r.mu.Unlock()
	if ok {
		return cached
	}

	if r.store != nil {
		var stored string
		if found, err := r.store.Get(ctx, cacheKey, &stored); err == nil && found && stored != "" {
			r.remember(cacheKey, stored)
			return stored
		}
	}

	imageURL, err := r.lookupArticleImage(ctx, query)
	if err != nil {
		r.logger.Debug("Image lookup failed, using placeholder",
			zap.String("query", query),
			zap.Error(err),
		)
		return placeholder
	}

	r.remember(cacheKey, imageURL)
	if r.store != nil {
		if err := r.store.Set(ctx, cacheKey, imageURL, r.storeTTL); err != nil {
			r.logger.Warn("Failed to store image lookup", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return imageURL
}

func (r *Resolver) Placeholder(name string) string {
	seed := url.PathEscape(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	return fmt.Sprintf(r.cfg.PlaceholderURL, seed)
}

func (r *Resolver) articleURL(query string) string {
	base := r.cfg.BaseURL
	if strings.Contains(base, "%s") {
		base = fmt.Sprintf(base, r.cfg.Language)
	}
	return base + url.PathEscape(strings.ReplaceAll(query, " ", "_"))
}

func (r *Resolver) lookupArticleImage(ctx context.Context, query string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.articleURL(query), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", constants.ImageConfig.UserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	content, exists := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if !exists || strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("article has no og:image")
	}

	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "//") {
		content = "https:" + content
	}
	return content, nil
}

func (r *Resolver) remember(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memo[key] = value
}
