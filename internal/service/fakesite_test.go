package service

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veranemoloko/novel-downloader/internal/assembly"
	"github.com/veranemoloko/novel-downloader/internal/source/biqu"
	"github.com/veranemoloko/novel-downloader/internal/storage"
	"github.com/veranemoloko/novel-downloader/internal/worker"
)

const bookPath = "/book/42/"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func waitFor(t *testing.T, timeout time.Duration, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting condition")
}

// fakeSite serves an index page and chapter pages. Chapters can be made to
// fail a number of times (negative: always) and answer with random latency.
type fakeSite struct {
	server     *httptest.Server
	units      int
	maxLatency time.Duration

	mu       sync.Mutex
	failures map[int]int
	attempts map[int]int
}

func newFakeSite(t *testing.T, units int, maxLatency time.Duration, failures map[int]int) *fakeSite {
	t.Helper()
	if failures == nil {
		failures = map[int]int{}
	}
	site := &fakeSite{
		units:      units,
		maxLatency: maxLatency,
		failures:   failures,
		attempts:   map[int]int{},
	}
	site.server = httptest.NewServer(http.HandlerFunc(site.serve))
	t.Cleanup(site.server.Close)
	return site
}

func (s *fakeSite) URL() string {
	return s.server.URL + bookPath
}

func (s *fakeSite) Attempts(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[index]
}

func (s *fakeSite) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == bookPath {
		s.serveIndex(w)
		return
	}

	name, ok := strings.CutPrefix(r.URL.Path, bookPath)
	if !ok {
		http.NotFound(w, r)
		return
	}
	index, err := strconv.Atoi(strings.TrimSuffix(name, ".html"))
	if err != nil || index < 0 || index >= s.units {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	s.attempts[index]++
	n := s.attempts[index]
	left := s.failures[index]
	s.mu.Unlock()

	if s.maxLatency > 0 {
		select {
		case <-time.After(rand.N(s.maxLatency)):
		case <-r.Context().Done():
			return
		}
	}

	if left < 0 || n <= left {
		http.Error(w, "upstream busy", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, `<html><head><meta charset="utf-8"></head><body>
<h1>%s</h1>
<div id="chaptercontent">广告　　%s　　footer1　　footer2</div>
</body></html>`, chapterTitle(index), strings.ReplaceAll(chapterBody(index), "\n", "　　"))
}

func (s *fakeSite) serveIndex(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var b strings.Builder
	b.WriteString(`<html><head><meta charset="utf-8"></head><body><div class="listmain"><dl>`)
	for i := range s.units {
		fmt.Fprintf(&b, `<dd><a href="%s%d.html">%s</a></dd>`, bookPath, i, chapterTitle(i))
	}
	b.WriteString(`</dl></div></body></html>`)
	_, _ = io.WriteString(w, b.String())
}

func chapterTitle(i int) string {
	return fmt.Sprintf("第%d章", i+1)
}

func chapterBody(i int) string {
	return fmt.Sprintf("第%d章的第一段\n第%d章的第二段", i+1, i+1)
}

// expectedArtifact is the exact file content for a fully successful job.
func expectedArtifact(name, author string, units int) string {
	var b strings.Builder
	b.WriteString(assembly.Header(name, author))
	for i := range units {
		b.WriteString(assembly.FormatBlock(chapterTitle(i), chapterBody(i)))
	}
	return b.String()
}

type testEnv struct {
	site    *fakeSite
	files   *storage.FileStorage
	orch    *Orchestrator
	client  *biqu.Client
	workers int
}

func newTestEnv(t *testing.T, site *fakeSite, workers int, delay time.Duration, writer ArtifactWriter) *testEnv {
	t.Helper()
	logger := newTestLogger()

	client, err := biqu.NewClient(site.server.URL, 5*time.Second, logger)
	require.NoError(t, err)
	parser, err := biqu.NewParser(site.server.URL)
	require.NoError(t, err)

	files := storage.NewFileStorage(t.TempDir())
	if writer == nil {
		writer = files
	}

	orch := NewOrchestrator(client, parser, writer, Options{
		MaxWorkers:   workers,
		Retry:        worker.RetryPolicy{MaxAttempts: 3, Delay: delay},
		FetchTimeout: 5 * time.Second,
	}, logger)

	return &testEnv{site: site, files: files, orch: orch, client: client, workers: workers}
}
