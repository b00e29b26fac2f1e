// Package pagefetch downloads a job posting page and extracts its main text.
package pagefetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/canjobs/internal/cache"
	"github.com/amishk599/canjobs/internal/extract"
)

const (
	maxCandidates = 80
	minChunkLen   = 200
	keepChunks    = 3
	maxBodyBytes  = 5 << 20
)

// Cache stores extracted page text by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Fetcher fetches job pages and returns their main text.
type Fetcher struct {
	client    *http.Client
	cache     Cache // may be nil
	timeout   time.Duration
	maxChars  int
	userAgent string
	logger    *slog.Logger
}

// New creates a page fetcher. cache may be nil.
func New(client *http.Client, c Cache, timeout time.Duration, maxChars int, userAgent string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:    client,
		cache:     c,
		timeout:   timeout,
		maxChars:  maxChars,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Text returns the main text of the page at url, or "" on any failure.
func (f *Fetcher) Text(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}

	key := cache.Key("page", url)
	if f.cache != nil {
		if text, ok := f.cache.Get(ctx, key); ok {
			f.logger.Debug("page text cache hit", "url", url)
			return text
		}
	}

	text, err := f.fetch(ctx, url)
	if err != nil {
		f.logger.Warn("page fetch failed", "url", url, "error", err)
		return ""
	}
	if text != "" && f.cache != nil {
		f.cache.Set(ctx, key, text)
	}
	return text
}

func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	return MainText(doc, f.maxChars), nil
}

// MainText joins the longest few text blocks of a page. Scripts, styles and
// inline SVG are dropped; of the first 80 main/article/section/div elements,
// the three longest texts over 200 characters are kept, normalized and cut to
// maxChars runes (zero means no limit).
func MainText(doc *goquery.Document, maxChars int) string {
	doc.Find("script, style, noscript, svg").Remove()

	var chunks []string
	doc.Find("main, article, section, div").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxCandidates {
			return false
		}
		if text := spacedText(s); len(text) > minChunkLen {
			chunks = append(chunks, text)
		}
		return true
	})

	sort.SliceStable(chunks, func(i, j int) bool { return len(chunks[i]) > len(chunks[j]) })
	if len(chunks) > keepChunks {
		chunks = chunks[:keepChunks]
	}

	text := extract.Normalize(strings.Join(chunks, " "))
	if maxChars > 0 {
		if r := []rune(text); len(r) > maxChars {
			text = string(r[:maxChars])
		}
	}
	return text
}

// spacedText returns the text of s with a space between text nodes, so words
// in adjacent elements do not run together.
func spacedText(s *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(s)
	return strings.Join(parts, " ")
}
