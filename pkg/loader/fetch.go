package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treepick/pkg/debug"
	"github.com/vanderheijden86/treepick/pkg/model"
)

// MaxPages caps pagination following so a misbehaving server cannot keep
// a fetch running forever.
const MaxPages = 1000

// HTTPClient is used by Fetch. Tests and callers may replace it.
var HTTPClient = &http.Client{Timeout: 30 * time.Second}

// Fetch GETs a { data, pagination } envelope from rawURL and follows
// pagination.page / pagination.totalPages by setting the page query
// parameter until the last page. Entries from all pages are linked into a
// single forest, so flat records may reference parents on other pages.
// Failures are terminal for the whole fetch; nothing is retried.
func Fetch(ctx context.Context, rawURL string) (*model.Forest, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	var entries []json.RawMessage
	next := base
	for pages := 1; ; pages++ {
		pageEntries, pagination, err := fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		entries = append(entries, pageEntries...)
		debug.Log("loader: fetched %s entries=%d pagination=%+v", next, len(pageEntries), pagination)

		if !pagination.HasNext() {
			break
		}
		if pages >= MaxPages {
			return nil, fmt.Errorf("fetching %s: more than %d pages", base, MaxPages)
		}
		next = withPage(base, pagination.Page+1)
	}
	return forestFromEntries(entries)
}

func fetchPage(ctx context.Context, u *url.URL) ([]json.RawMessage, *Pagination, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("fetching %s: status %s: %s", u, resp.Status, truncate(body, 200))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", u, err)
	}
	return decodeEntries(data)
}

func withPage(base *url.URL, page int) *url.URL {
	u := *base
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return &u
}
