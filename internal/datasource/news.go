package datasource

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/indexmovers/pkg/models"
)

// News fetches market headlines from per-index RSS feeds.
type News struct {
	feeds   map[models.Index][]string
	cache   *Cache
	limiter *RateLimiter
	parser  *gofeed.Parser
}

// NewNews creates a headline source with the given feeds per index.
func NewNews(client *Client, feeds map[models.Index][]string) *News {
	if client == nil {
		client = NewClient(0, "")
	}
	parser := gofeed.NewParser()
	parser.Client = client.HTTP
	parser.UserAgent = client.UserAgent
	return &News{
		feeds:   feeds,
		cache:   NewCache(10 * time.Minute),
		limiter: NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:  parser,
	}
}

// Name returns the data source name.
func (n *News) Name() string { return "Headlines" }

// PurgeExpired drops expired headline lists from the cache.
func (n *News) PurgeExpired() int { return n.cache.Cleanup() }

// Headlines returns recent articles from all feeds of the index, newest
// first. Failing feeds are skipped; an error is returned only when every
// feed failed.
func (n *News) Headlines(ctx context.Context, index models.Index, limit int) ([]models.NewsArticle, error) {
	cacheKey := fmt.Sprintf("news:%s:%d", index, limit)
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]models.NewsArticle), nil
	}

	feeds := n.feeds[index]
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no headline feeds configured for %s", index)
	}

	var (
		all     []models.NewsArticle
		lastErr error
		ok      int
	)
	for _, feedURL := range feeds {
		articles, err := n.fetchRSS(ctx, feedURL)
		if err != nil {
			lastErr = err
			continue
		}
		ok++
		all = append(all, articles...)
	}
	if ok == 0 {
		return nil, lastErr
	}

	sortArticlesByDate(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	n.cache.Set(cacheKey, all)
	return all, nil
}

// --- Internal helpers ---

// fetchRSS parses an RSS or Atom feed and returns its articles.
func (n *News) fetchRSS(ctx context.Context, feedURL string) ([]models.NewsArticle, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := n.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", feedURL, err)
	}

	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = feedHost(feedURL)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := models.NewsArticle{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Source:  source,
			Summary: cleanHTML(item.Description),
		}
		switch {
		case item.PublishedParsed != nil:
			a.PublishedAt = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			a.PublishedAt = *item.UpdatedParsed
		}
		articles = append(articles, a)
	}

	return articles, nil
}

func feedHost(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// sortArticlesByDate sorts articles by published date, newest first.
func sortArticlesByDate(articles []models.NewsArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
