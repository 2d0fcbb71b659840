// Package listing retrieves the master regulatory-notice listing and
// parses it into candidate records.
package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"notice-watcher/pkg/config"
	"notice-watcher/pkg/fetch"
	"notice-watcher/pkg/identity"
	"notice-watcher/pkg/models"
	"notice-watcher/pkg/utils"
)

// Fetcher downloads and parses the listing page using the shared session client.
type Fetcher struct {
	client *http.Client
	cfg    *config.AppConfig
	log    *logrus.Logger
}

// NewFetcher creates a listing Fetcher
func NewFetcher(client *http.Client, cfg *config.AppConfig, log *logrus.Logger) *Fetcher {
	return &Fetcher{client: client, cfg: cfg, log: log}
}

// WarmSession performs the initial GET against the listing URL so the
// origin can set session cookies on the shared client. Detail fetches
// made without this step are treated as anonymous traffic and blocked
// far more aggressively. Failure is non-fatal.
func (f *Fetcher) WarmSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.ListingURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	fetch.BrowserHeaders(req, f.cfg.UserAgent, "")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d %s", utils.ErrOtherHTTPError, resp.StatusCode, resp.Status)
	}
	f.log.Debug("HTTP session initialized (cookies established)")
	return nil
}

// FetchListing performs one GET against the listing endpoint and parses the
// first table into candidate records. Rows with fewer than three columns
// are skipped. Returns utils.ErrListingUnavailable (wrapped) when the page
// cannot be retrieved or holds no table; callers must treat that as "no
// update performed", never as an empty listing.
func (f *Fetcher) FetchListing(ctx context.Context) ([]models.CandidateRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.ListingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	fetch.BrowserHeaders(req, f.cfg.UserAgent, "")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrListingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d %s", utils.ErrListingUnavailable, resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: HTML parse: %w", utils.ErrListingUnavailable, err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table found on listing page", utils.ErrListingUnavailable)
	}

	fetchedAt := time.Now().Format("2006-01-02 15:04:05")
	var records []models.CandidateRecord

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 3 {
			return
		}

		title := squashText(cols.Eq(0))
		desc := squashText(cols.Eq(1))
		date := strings.TrimSpace(cols.Eq(2).Text())
		detailURL := f.resolveLink(cols.Eq(0))

		rec := models.CandidateRecord{
			ID:          identity.Identify(identity.RecordKey(detailURL, title, date)),
			Title:       title,
			DetailURL:   detailURL,
			Description: desc,
			Date:        date,
			FetchedAt:   fetchedAt,
		}
		if rec.ID == "" {
			f.log.WithField("title", title).Warn("Listing row has nothing to key on, record is unidentifiable")
		}
		records = append(records, rec)
	})

	f.log.Infof("Found %d records in listing table", len(records))
	return records, nil
}

// resolveLink finds the first anchor under the title column (direct child
// first, any descendant as fallback) and resolves it against the base domain.
func (f *Fetcher) resolveLink(col *goquery.Selection) string {
	anchor := col.ChildrenFiltered("a[href]").First()
	if anchor.Length() == 0 {
		anchor = col.Find("a[href]").First()
	}
	href, ok := anchor.Attr("href")
	if !ok {
		return ""
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	base, err := url.Parse(f.cfg.BaseDomain)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		f.log.Warnf("Skipping unparseable href %q: %v", href, err)
		return ""
	}
	return base.ResolveReference(ref).String()
}

// squashText returns the selection's text with element boundaries collapsed
// to single spaces, matching how a browser renders a table cell.
func squashText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
