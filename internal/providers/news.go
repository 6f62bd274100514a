package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jaehyun-dev/concord/pkg/httputil"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// Headline tone word lists. Coarse on purpose: the score only nudges the
// sentiment factor, it never drives a recommendation on its own.
var (
	positiveWords = []string{
		"beat", "beats", "surge", "surges", "record", "upgrade", "upgraded",
		"growth", "profit", "rally", "rallies", "strong", "raises", "wins",
		"soars", "outperform", "expands", "approval",
	}
	negativeWords = []string{
		"miss", "misses", "plunge", "plunges", "downgrade", "downgraded",
		"lawsuit", "recall", "falls", "weak", "cuts", "probe", "loss",
		"losses", "warns", "slump", "bankruptcy", "layoffs", "fraud",
	}
)

// NewsScraper derives a headline tone score from the news portal's HTML.
type NewsScraper struct {
	httpClient *httputil.Client
	baseURL    string
	logger     *logger.Logger
}

// NewNewsScraper creates a headline scraper.
func NewNewsScraper(httpClient *httputil.Client, baseURL string, log *logger.Logger) *NewsScraper {
	return &NewsScraper{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     log,
	}
}

// Score fetches recent headlines for a symbol and returns a tone score in
// [-1,1]. No headlines means neutral 0.
func (s *NewsScraper) Score(ctx context.Context, symbol string) (float64, error) {
	fullURL := fmt.Sprintf("%s/news/%s", s.baseURL, url.PathEscape(symbol))

	resp, err := s.httpClient.Get(ctx, fullURL)
	if err != nil {
		return 0, fmt.Errorf("fetch headlines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("parse headlines: %w", err)
	}

	headlines := extractHeadlines(doc)
	score := scoreHeadlines(headlines)

	s.logger.WithFields(map[string]interface{}{
		"symbol":    symbol,
		"headlines": len(headlines),
		"score":     score,
	}).Debug("Headline sentiment scored")

	return score, nil
}

// extractHeadlines collects headline texts from the article list markup.
func extractHeadlines(doc *goquery.Document) []string {
	var headlines []string
	doc.Find(".headline, li.news-item a, h3.article-title").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			headlines = append(headlines, text)
		}
	})
	return headlines
}

// scoreHeadlines tallies tone words across headlines. The result is the
// signed share of tone hits, so a single loud headline cannot dominate a
// mixed set.
func scoreHeadlines(headlines []string) float64 {
	var positive, negative int
	for _, h := range headlines {
		lower := strings.ToLower(h)
		for _, w := range positiveWords {
			if containsWord(lower, w) {
				positive++
			}
		}
		for _, w := range negativeWords {
			if containsWord(lower, w) {
				negative++
			}
		}
	}

	total := positive + negative
	if total == 0 {
		return 0
	}
	return float64(positive-negative) / float64(total)
}

// containsWord matches a whole word, so "loss" does not match "glossary".
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(text[start-1])
		afterOK := end == len(text) || !isLetter(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
