// Package crawler fetches candidate websites and rule-extracts menu
// items, contact details and feature hints without any AI involvement.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

const (
	userAgent       = "Mozilla/5.0 (compatible; AnshinBot/1.0)"
	defaultTimeout  = 8 * time.Second
	maxSubPages     = 3
	maxPageText     = 5000
	maxMainImages   = 10
	maxTotalImages  = 20
	maxResponseSize = 4 << 20
)

var phonePattern = regexp.MustCompile(`0\d{1,4}-\d{1,4}-\d{4}`)

type Crawler struct {
	httpClient *http.Client
}

func New(timeout time.Duration) *Crawler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Crawler{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Crawl fetches the page, extracts everything the rules can find and
// follows up to three menu-looking links one level deep. Subpage
// failures are tolerated; only a failed fetch of the entry page is an
// error.
func (c *Crawler) Crawl(ctx context.Context, websiteURL string) (*domain.SiteContent, error) {
	root, err := c.fetch(ctx, websiteURL)
	if err != nil {
		return nil, err
	}

	content := &domain.SiteContent{
		URL:          websiteURL,
		Features:     map[string]domain.FeatureValue{},
		PagesFetched: 1,
	}

	text := collapseText(root)
	content.Text = truncateRunes(text, maxPageText)

	if m := phonePattern.FindString(text); m != "" {
		content.Phone = m
	}
	content.Instagram = findInstagramLink(root)
	content.Images = harvestImages(root, websiteURL, nil, maxMainImages)
	content.Menus = extractMenusRuleBased(root, websiteURL)

	for k, v := range detectFeaturesFromText(text) {
		content.Features[k] = v
	}

	for _, link := range menuLinks(root, websiteURL, maxSubPages) {
		sub, err := c.fetch(ctx, link)
		if err != nil {
			continue
		}
		content.PagesFetched++

		subText := collapseText(sub)
		content.Text = truncateRunes(content.Text+" "+subText, maxPageText*2)
		content.Menus = append(content.Menus, extractMenusRuleBased(sub, link)...)
		content.Images = harvestImages(sub, link, content.Images, maxTotalImages)
		for k, v := range detectFeaturesFromText(subText) {
			content.Features[k] = v
		}
	}

	content.Menus = dedupeByName(content.Menus)
	return content, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch page", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "fetch page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("fetch %s: status %s", pageURL, resp.Status)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout {
			return nil, domain.WrapError(domain.ErrTemporary, "fetch page", err)
		}
		return nil, err
	}

	root, err := html.Parse(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, domain.WrapError(domain.ErrMalformedResponse, "parse page", err)
	}
	return root, nil
}

// collapseText returns the visible text of the document with whitespace
// runs collapsed to single spaces.
func collapseText(root *html.Node) string {
	var sb strings.Builder
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return false
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		return true
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func findInstagramLink(root *html.Node) string {
	var found string
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); strings.Contains(href, "instagram.com") {
				found = href
			}
		}
		return true
	})
	return found
}

func dedupeByName(menus []domain.MenuItem) []domain.MenuItem {
	seen := make(map[string]bool, len(menus))
	out := menus[:0]
	for _, m := range menus {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		out = append(out, m)
	}
	return out
}
