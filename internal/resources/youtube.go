// Package resources finds study material for weak topics.
package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/abhisek/studyloop/internal/session"
)

// QueryBuilder turns a topic into a search query.
type QueryBuilder interface {
	Query(ctx context.Context, topic string) (string, error)
}

// Config configures the YouTube recommender.
type Config struct {
	APIKey     string `yaml:"api_key"`
	MaxResults int    `yaml:"max_results"`
	// Language biases results toward an ISO-639-1 language.
	Language string `yaml:"language"`
	// RequestsPerMinute caps calls to the search API.
	RequestsPerMinute int `yaml:"requests_per_minute"`
	// Endpoint overrides the API base URL.
	Endpoint string `yaml:"endpoint"`
}

// DefaultConfig returns three results and at most 30 searches a minute.
func DefaultConfig() Config {
	return Config{MaxResults: 3, RequestsPerMinute: 30}
}

// YouTubeRecommender implements session.Recommender with the YouTube Data
// API search endpoint.
type YouTubeRecommender struct {
	svc     *youtube.Service
	cfg     Config
	queries QueryBuilder
	limiter *rate.Limiter

	mu    sync.Mutex
	cache map[string][]session.Resource
}

// NewYouTubeRecommender creates the API client. queries may be nil, in
// which case the topic is searched as is.
func NewYouTubeRecommender(ctx context.Context, cfg Config, queries QueryBuilder) (*YouTubeRecommender, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("resources: a YouTube API key is required")
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("resources: create youtube client: %w", err)
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	}
	return &YouTubeRecommender{
		svc:     svc,
		cfg:     cfg,
		queries: queries,
		limiter: rate.NewLimiter(limit, 1),
		cache:   make(map[string][]session.Resource),
	}, nil
}

// Search implements session.Recommender.
func (y *YouTubeRecommender) Search(ctx context.Context, topic string) ([]session.Resource, error) {
	q := y.query(ctx, topic)

	y.mu.Lock()
	cached, ok := y.cache[q]
	y.mu.Unlock()
	if ok {
		return cached, nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	call := y.svc.Search.List([]string{"id", "snippet"}).
		Q(q).
		Type("video").
		Order("relevance").
		SafeSearch("strict").
		MaxResults(int64(y.cfg.MaxResults)).
		Context(ctx)
	if y.cfg.Language != "" {
		call = call.RelevanceLanguage(y.cfg.Language)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search %q: %w", q, err)
	}

	var out []session.Resource
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		out = append(out, session.Resource{
			Title:       item.Snippet.Title,
			URL:         "https://www.youtube.com/watch?v=" + item.Id.VideoId,
			Description: item.Snippet.Description,
		})
	}

	y.mu.Lock()
	y.cache[q] = out
	y.mu.Unlock()
	return out, nil
}

// query asks the QueryBuilder for keywords, falling back to the topic.
func (y *YouTubeRecommender) query(ctx context.Context, topic string) string {
	if y.queries == nil {
		return topic
	}
	q, err := y.queries.Query(ctx, topic)
	if err != nil || strings.TrimSpace(q) == "" {
		return topic
	}
	return q
}
