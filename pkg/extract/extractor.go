// Package extract retrieves detail pages and pulls ordered body text out
// of them, tolerating blocks, rate limits, and transient network failures
// without ever surfacing an error: every failure mode resolves to an
// empty string plus an observable outcome for statistics.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"notice-watcher/pkg/config"
	"notice-watcher/pkg/fetch"
	"notice-watcher/pkg/models"
	"notice-watcher/pkg/utils"
)

// Extractor performs deep scraping of individual detail pages over the
// shared session client.
type Extractor struct {
	client    *http.Client
	cfg       config.ExtractConfig
	userAgent string
	limiter   *fetch.Limiter
	log       *logrus.Logger
}

// NewExtractor creates an Extractor. All pacing and retry behavior comes
// from cfg; nothing is read from package state.
func NewExtractor(client *http.Client, cfg config.ExtractConfig, userAgent string, limiter *fetch.Limiter, log *logrus.Logger) *Extractor {
	return &Extractor{
		client:    client,
		cfg:       cfg,
		userAgent: userAgent,
		limiter:   limiter,
		log:       log,
	}
}

// HighLoad reports whether rawURL matches the configured high-load path
// shape and therefore gets the conservative pre-request delay.
func (e *Extractor) HighLoad(rawURL string) bool {
	return fetch.HighLoadPath(rawURL, e.cfg.HighLoadSegment)
}

// Extract fetches rawURL and returns its ordered body text.
//
// The contract is total: non-HTTP targets and PDFs are rejected up front
// (PDFs yield the placeholder marker for the OCR pipeline), HTTP 403 is
// retried at most once with an extended delay and only for high-load
// URLs, 404 and other statuses fail immediately, and connection errors
// are retried with exponential backoff up to the configured ceiling.
// Whatever happens, the text result plus a FetchOutcome come back and no
// error escapes.
func (e *Extractor) Extract(ctx context.Context, rawURL, referer string) (string, models.FetchOutcome) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", models.OutcomeBadURL
	}
	if strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return models.PDFPlaceholder, models.OutcomePDF
	}

	highLoad := e.HighLoad(rawURL)
	delay := e.cfg.StandardDelay
	if highLoad {
		delay = e.cfg.HighLoadDelay
	}

	urlLog := e.log.WithFields(logrus.Fields{"url": rawURL, "high_load": highLoad})

	for attempt := 0; attempt < e.cfg.MaxRetries; attempt++ {
		// Politeness pause before every request, longer for high-load paths
		if err := e.limiter.Wait(ctx, u.Host, delay); err != nil {
			urlLog.Warnf("Cancelled before attempt %d: %v", attempt, err)
			return "", models.OutcomeCancelled
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if reqErr != nil {
			return "", models.OutcomeBadURL
		}
		fetch.BrowserHeaders(req, e.userAgent, referer)

		resp, doErr := e.client.Do(req)
		e.limiter.Touch(u.Host)

		if doErr != nil {
			if errors.Is(doErr, context.Canceled) || errors.Is(doErr, context.DeadlineExceeded) {
				urlLog.Warnf("Cancelled during request: %v", doErr)
				return "", models.OutcomeCancelled
			}
			// Transient network failure: back off and retry
			if attempt < e.cfg.MaxRetries-1 {
				wait := e.cfg.RetryDelay * time.Duration(1<<attempt)
				urlLog.WithFields(logrus.Fields{"attempt": attempt + 1, "max_retries": e.cfg.MaxRetries, "wait": wait}).
					Warnf("Connection error, retrying: %v", doErr)
				if sleepErr := fetch.Sleep(ctx, wait); sleepErr != nil {
					return "", models.OutcomeCancelled
				}
				continue
			}
			urlLog.WithField("error_category", utils.CategorizeError(fmt.Errorf("%w: %w", utils.ErrRetryFailed, doErr))).
				Errorf("Connection failed after %d attempts: %v", e.cfg.MaxRetries, doErr)
			return "", models.OutcomeConnError
		}

		text, outcome := e.handleResponse(resp, urlLog)
		switch outcome {
		case models.OutcomeForbidden:
			resp.Body.Close()
			// One extended-delay retry for high-load URLs on the first
			// attempt. Repeating beyond that cannot change a deliberate block.
			if highLoad && attempt == 0 {
				urlLog.Warn("403 on high-load URL, waiting longer before one retry")
				if sleepErr := fetch.Sleep(ctx, 2*e.cfg.HighLoadDelay); sleepErr != nil {
					return "", models.OutcomeCancelled
				}
				continue
			}
			urlLog.Warnf("403 Forbidden, giving up after attempt %d", attempt+1)
			return "", models.OutcomeForbidden
		default:
			resp.Body.Close()
			return text, outcome
		}
	}

	return "", models.OutcomeConnError
}

// handleResponse turns one HTTP response into (text, outcome). The caller
// owns the body.
func (e *Extractor) handleResponse(resp *http.Response, urlLog *logrus.Entry) (string, models.FetchOutcome) {
	switch {
	case resp.StatusCode == http.StatusOK:
		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			urlLog.Warnf("HTML parse failed: %v", err)
			return "", models.OutcomeEmpty
		}

		root, strategyName := contentRoot(doc)
		if root == nil {
			urlLog.Warn("No content root found on page")
			return "", models.OutcomeEmpty
		}
		urlLog.WithField("strategy", strategyName).Debug("Content root selected")

		text := collectText(root)
		if len(text) <= e.cfg.MinContentLen {
			urlLog.Debugf("No substantial content (%d chars)", len(text))
			return "", models.OutcomeEmpty
		}
		return text, models.OutcomeSuccess

	case resp.StatusCode == http.StatusForbidden:
		return "", models.OutcomeForbidden

	case resp.StatusCode == http.StatusNotFound:
		urlLog.Warn("404 Not Found")
		return "", models.OutcomeNotFound

	default:
		urlLog.Warnf("HTTP %d accessing page", resp.StatusCode)
		return "", models.OutcomeHTTPError
	}
}
