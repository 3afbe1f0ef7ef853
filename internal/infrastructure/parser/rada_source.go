package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"BillsMonitor/internal/config"
	"BillsMonitor/internal/domain"
	"BillsMonitor/internal/extract"
	"BillsMonitor/internal/ports"
)

const userAgent = "BillsMonitor/1.0"

// candidateTags are the elements whose text may hold the bill title.
const candidateTags = "td, div, span, p, a, h1, h2, h3"

// ErrUnexpectedStatus is returned when the register answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// RadaSource reads the bill listing and detail cards of the Rada register.
type RadaSource struct {
	client      *http.Client
	base        *url.URL
	listingPath string
	detailPath  string
	rules       extract.TitleRules
	logger      *slog.Logger
}

var _ ports.BillSource = (*RadaSource)(nil)

// NewRadaSource wires an HTTP client; a nil client gets the configured timeout.
func NewRadaSource(cfg config.SourceConfig, client *http.Client, rules extract.TitleRules, log *slog.Logger) (*RadaSource, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %s: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", cfg.BaseURL)
	}

	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &RadaSource{
		client:      client,
		base:        base,
		listingPath: cfg.ListingPath,
		detailPath:  ensureSlashes(cfg.DetailPath),
		rules:       rules,
		logger:      log,
	}, nil
}

// ListBills fetches the listing page and returns its bills in page order.
func (r *RadaSource) ListBills(ctx context.Context) ([]domain.BillSummary, error) {
	listingURL := r.base.String() + r.listingPath
	doc, err := r.fetchDocument(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("listing: %w", err)
	}

	bills := parseListing(doc, r.base, r.detailPath)
	r.debug("listing parsed", "url", listingURL, "bills", len(bills))
	return bills, nil
}

// FetchDetails loads the detail card of a bill and extracts its title and date.
func (r *RadaSource) FetchDetails(ctx context.Context, id string) (domain.BillDetails, error) {
	cardURL := r.DetailURL(id)
	doc, err := r.fetchDocument(ctx, cardURL)
	if err != nil {
		return domain.BillDetails{}, fmt.Errorf("bill %s: %w", id, err)
	}

	return parseDetails(doc, cardURL, r.rules), nil
}

// DetailURL builds the card address of a bill.
func (r *RadaSource) DetailURL(id string) string {
	return r.base.String() + r.detailPath + url.PathEscape(id)
}

func (r *RadaSource) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrUnexpectedStatus, pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func parseListing(doc *goquery.Document, base *url.URL, detailPath string) []domain.BillSummary {
	var bills []domain.BillSummary

	selector := fmt.Sprintf("a[href*=%q]", detailPath)
	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)

		id := billID(abs.Path, detailPath)
		if id == "" {
			return
		}

		bills = append(bills, domain.BillSummary{
			ID:     id,
			Number: strings.TrimSpace(a.Text()),
			URL:    abs.String(),
		})
	})

	return bills
}

// billID returns the last path segment after the detail path, or "" if there is none.
func billID(path, detailPath string) string {
	idx := strings.Index(path, detailPath)
	if idx == -1 {
		return ""
	}
	rest := strings.Trim(path[idx+len(detailPath):], "/")
	if rest == "" {
		return ""
	}
	if slash := strings.LastIndex(rest, "/"); slash != -1 {
		rest = rest[slash+1:]
	}
	return rest
}

func parseDetails(doc *goquery.Document, pageURL string, rules extract.TitleRules) domain.BillDetails {
	var candidates []string
	doc.Find(candidateTags).Each(func(_ int, s *goquery.Selection) {
		text := nodeText(s)
		if text != "" && rules.IsCandidate(text) {
			candidates = append(candidates, text)
		}
	})

	title, ok := rules.Best(candidates)
	if !ok {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return domain.BillDetails{
		Title: title,
		Date:  extract.RegistrationDate(nodeText(doc.Selection)),
		URL:   pageURL,
	}
}

// nodeText joins all descendant text nodes with single spaces, skipping scripts and styles.
func nodeText(sel *goquery.Selection) string {
	var parts []string
	for _, n := range sel.Nodes {
		collectText(n, &parts)
	}
	return extract.NormalizeSpace(strings.Join(parts, " "))
}

func collectText(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.TextNode:
		if s := strings.TrimSpace(n.Data); s != "" {
			*parts = append(*parts, s)
		}
		return
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

func ensureSlashes(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func (r *RadaSource) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
