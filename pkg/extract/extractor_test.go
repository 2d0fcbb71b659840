package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notice-watcher/pkg/config"
	"notice-watcher/pkg/fetch"
	"notice-watcher/pkg/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() config.ExtractConfig {
	return config.ExtractConfig{
		StandardDelay:   time.Millisecond,
		HighLoadDelay:   2 * time.Millisecond,
		HighLoadSegment: "node",
		MaxRetries:      3,
		RetryDelay:      time.Millisecond,
		MinContentLen:   50,
	}
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	log := testLogger()
	client := fetch.NewClient(config.HTTPClientConfig{}, log)
	return NewExtractor(client, testConfig(), config.DefaultUserAgent, fetch.NewLimiter(log), log)
}

func goqueryDoc(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

const longParagraph = "Approval is based on a randomized trial enrolling several hundred patients across many sites."

func TestExtract_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><div role="main"><h1>Notice</h1><p>%s</p></div></body></html>`, longParagraph)
	}))
	defer srv.Close()

	text, outcome := newTestExtractor(t).Extract(context.Background(), srv.URL+"/drug", "")
	assert.Equal(t, models.OutcomeSuccess, outcome)
	assert.Equal(t, "Notice\n\n"+longParagraph, text)
}

func TestExtract_DocumentOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><article>
			<p>First paragraph of the announcement with enough words to pass the length gate.</p>
			<h2>Later heading</h2>
			<ul><li>alpha item</li><li>beta item</li></ul>
			<p>Closing paragraph.</p>
		</article></body></html>`)
	}))
	defer srv.Close()

	text, outcome := newTestExtractor(t).Extract(context.Background(), srv.URL+"/drug", "")
	require.Equal(t, models.OutcomeSuccess, outcome)
	assert.Equal(t, strings.Join([]string{
		"First paragraph of the announcement with enough words to pass the length gate.",
		"Later heading",
		"alpha item",
		"beta item",
		"Closing paragraph.",
	}, "\n\n"), text)
}

func TestExtract_ShortContentIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><article><p>Too short.</p></article></body></html>`)
	}))
	defer srv.Close()

	text, outcome := newTestExtractor(t).Extract(context.Background(), srv.URL+"/drug", "")
	assert.Equal(t, models.OutcomeEmpty, outcome)
	assert.Empty(t, text)
}

func TestExtract_NotFound(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	text, outcome := newTestExtractor(t).Extract(context.Background(), srv.URL+"/gone", "")
	assert.Equal(t, models.OutcomeNotFound, outcome)
	assert.Empty(t, text)
	assert.Equal(t, int32(1), hits.Load(), "404 must not be retried")
}

func TestExtract_ForbiddenStandardURL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, outcome := newTestExtractor(t).Extract(context.Background(), srv.URL+"/drug", "")
	assert.Equal(t, models.OutcomeForbidden, outcome)
	assert.Equal(t, int32(1), hits.Load(), "403 on a standard URL must not be retried")
}

func TestExtract_ForbiddenHighLoadRetriesOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprintf(w, `<html><body><article><p>%s</p></article></body></html>`, longParagraph)
	}))
	defer srv.Close()

	text, outcome := newTestExtractor(t).Extract(context.Background(), srv.URL+"/node/123", "")
	assert.Equal(t, models.OutcomeSuccess, outcome)
	assert.Equal(t, longParagraph, text)
	assert.Equal(t, int32(2), hits.Load())
}

func TestExtract_ForbiddenHighLoadGivesUpAfterRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, outcome := newTestExtractor(t).Extract(context.Background(), srv.URL+"/node/123", "")
	assert.Equal(t, models.OutcomeForbidden, outcome)
	assert.Equal(t, int32(2), hits.Load())
}

func TestExtract_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, outcome := newTestExtractor(t).Extract(context.Background(), srv.URL+"/drug", "")
	assert.Equal(t, models.OutcomeHTTPError, outcome)
}

func TestExtract_ConnErrorExhaustsRetries(t *testing.T) {
	// Nothing listens here; connections are refused immediately.
	_, outcome := newTestExtractor(t).Extract(context.Background(), "http://127.0.0.1:1/drug", "")
	assert.Equal(t, models.OutcomeConnError, outcome)
}

func TestExtract_HighLoad(t *testing.T) {
	ex := newTestExtractor(t)
	assert.True(t, ex.HighLoad("https://example.org/node/123"))
	assert.False(t, ex.HighLoad("https://example.org/drugs/approvals"))
}

func TestExtract_PDFPlaceholder(t *testing.T) {
	text, outcome := newTestExtractor(t).Extract(context.Background(), "https://example.org/label.PDF", "")
	assert.Equal(t, models.OutcomePDF, outcome)
	assert.Equal(t, models.PDFPlaceholder, text)
}

func TestExtract_BadURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.org/x", "not a url at all", "mailto:x@example.org"} {
		_, outcome := newTestExtractor(t).Extract(context.Background(), raw, "")
		assert.Equal(t, models.OutcomeBadURL, outcome, raw)
	}
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := newTestExtractor(t)
	ex.cfg.StandardDelay = time.Second
	_, outcome := ex.Extract(ctx, "http://127.0.0.1:1/drug", "")
	assert.Equal(t, models.OutcomeCancelled, outcome)
}

func TestExtract_SendsBrowserHeaders(t *testing.T) {
	var gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		fmt.Fprintf(w, `<html><body><article><p>%s</p></article></body></html>`, longParagraph)
	}))
	defer srv.Close()

	_, outcome := newTestExtractor(t).Extract(context.Background(), srv.URL+"/drug", "https://listing.example.org/")
	require.Equal(t, models.OutcomeSuccess, outcome)
	assert.Equal(t, config.DefaultUserAgent, gotUA)
	assert.Equal(t, "https://listing.example.org/", gotReferer)
}

func TestContentRoot_Priority(t *testing.T) {
	html := `<html><body>
		<div role="main"><p>main content</p></div>
		<article><p>article content</p></article>
	</body></html>`
	doc, err := goqueryDoc(html)
	require.NoError(t, err)

	sel, name := contentRoot(doc)
	require.NotNil(t, sel)
	assert.Equal(t, "role-main", name)
	assert.Contains(t, sel.Text(), "main content")
}

func TestContentRoot_DensestDiv(t *testing.T) {
	html := `<html><body>
		<div><p>one</p></div>
		<div id="rich"><p>a</p><p>b</p><p>c</p></div>
	</body></html>`
	doc, err := goqueryDoc(html)
	require.NoError(t, err)

	sel, name := contentRoot(doc)
	require.NotNil(t, sel)
	assert.Equal(t, "densest-div", name)
	id, _ := sel.Attr("id")
	assert.Equal(t, "rich", id)
}

func TestContentRoot_BodyFallback(t *testing.T) {
	doc, err := goqueryDoc(`<html><body><p>plain page</p></body></html>`)
	require.NoError(t, err)

	sel, name := contentRoot(doc)
	require.NotNil(t, sel)
	assert.Equal(t, "document-body", name)
}

func TestCollectText_NestedList(t *testing.T) {
	doc, err := goqueryDoc(`<html><body><article>
		<ul><li>outer<ul><li>inner</li></ul></li></ul>
	</article></body></html>`)
	require.NoError(t, err)

	sel, _ := contentRoot(doc)
	text := collectText(sel)
	assert.Contains(t, text, "outer")
	assert.Contains(t, text, "inner")
}
