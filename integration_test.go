package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"sjsage522/carlistingworker/helpers"
	"sjsage522/carlistingworker/internal/crawler"
	"sjsage522/carlistingworker/logger"
	"sjsage522/carlistingworker/pkg/errors"
	"sjsage522/carlistingworker/services/metrics"
	"sjsage522/carlistingworker/services/store"
	"sjsage522/carlistingworker/services/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sautoSite mimics the Sauto listing and detail pages
type sautoSite struct {
	perPage int
	pages   int
}

func (s *sautoSite) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/inzerce/osobni/", func(w http.ResponseWriter, r *http.Request) {
		page := 1
		fmt.Sscanf(r.URL.Query().Get("strana"), "%d", &page)
		var b strings.Builder
		b.WriteString("<html><body><div class=\"c-item-list\">")
		if page <= s.pages {
			for i := 0; i < s.perPage; i++ {
				id := (page-1)*s.perPage + i
				fmt.Fprintf(&b, `<a class="c-item__link" href="/osobni/detail/skoda/octavia/%d">Octavia</a>`, id)
			}
		}
		b.WriteString("</div></body></html>")
		w.Write([]byte(b.String()))
	})
	mux.HandleFunc("/osobni/detail/", func(w http.ResponseWriter, r *http.Request) {
		var id int
		fmt.Sscanf(filepath.Base(r.URL.Path), "%d", &id)
		fmt.Fprintf(w, `<html><body>
<span class="c-a-basic-info__subtitle-info">Ojeté, 5/2018, %d km</span>
<div class="c-a-basic-info__price">%d Kč</div>
<ul>
  <li class="c-car-properties__tile"><div class="c-car-properties__tile-label">Palivo</div><div class="c-car-properties__tile-value">Benzín</div></li>
  <li class="c-car-properties__tile"><div class="c-car-properties__tile-label">Převodovka</div><div class="c-car-properties__tile-value">Manuální</div></li>
  <li class="c-car-otherProperties__tile"><div class="c-car-otherProperties__tile-label">Výkon</div><div class="c-car-otherProperties__tile-value">110 kW (150 k)</div></li>
</ul>
</body></html>`, 50000+id*100, 350000+id*1000)
	})
	return mux
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("cache miss")
}

func (m *memoryCache) Set(key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type memoryPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (m *memoryPublisher) Publish(key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[key] = append(m.messages[key], append([]byte(nil), message...))
	return nil
}

func (m *memoryPublisher) TrimStreams() error { return nil }
func (m *memoryPublisher) Close() error       { return nil }

func crawlOnce(t *testing.T, server *httptest.Server, storePath string, pub *memoryPublisher) (worker.CrawlResult, store.Stats) {
	t.Helper()
	ctx := context.Background()

	adapter := crawler.NewSautoAdapter(server.URL, crawler.Filter{Brand: "skoda"})
	fetcher := crawler.NewFetcher(adapter, time.Second, &memoryCache{data: map[string][]byte{}}, time.Minute)
	journal := helpers.NewLogger(filepath.Join(t.TempDir(), "error.log"))
	m := metrics.New()

	base, firstPage := worker.ResolveBaseURL(ctx, adapter, fetcher, crawler.Filter{Brand: "skoda"})
	w := worker.NewWorker(adapter, fetcher, journal, m, worker.Options{
		BaseURL:     base,
		TargetCount: 12,
		MaxPages:    5,
		MaxWorkers:  4,
		FirstPage:   firstPage,
	})

	result, err := w.Run(ctx)
	require.NoError(t, err)

	stats, err := store.NewCSVStore(storePath, adapter.RecordsEngine()).MergeAndSave(result.Records)
	require.NoError(t, err)

	worker.PublishAdded(pub, adapter.Name(), stats.New, journal, m)
	return result, stats
}

func TestCrawlToStorePipeline(t *testing.T) {
	site := &sautoSite{perPage: 5, pages: 10}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	storePath := filepath.Join(t.TempDir(), "raw_data", "auta_sauto.csv")
	pub := &memoryPublisher{messages: map[string][][]byte{}}

	result, stats := crawlOnce(t, server, storePath, pub)
	assert.Equal(t, worker.StoppedTargetReached, result.State)
	assert.Equal(t, 3, result.Pages)
	assert.Len(t, result.Records, 15)
	assert.Equal(t, 15, stats.Added)
	assert.Equal(t, 15, stats.Total)
	assert.Len(t, pub.messages["sauto"], 15)

	var first crawler.ListingRecord
	require.NoError(t, json.Unmarshal(pub.messages["sauto"][0], &first))
	assert.Equal(t, "Škoda", first.Brand)
	assert.Equal(t, "Octavia", first.Model)
	assert.Equal(t, 110, first.Power)

	// a second identical run adds nothing
	_, stats = crawlOnce(t, server, storePath, pub)
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 15, stats.Total)
	assert.Len(t, pub.messages["sauto"], 15)

	data, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Equal(t, 16, strings.Count(string(data), "\n"))
}

func TestRunRejectsInvalidConfiguration(t *testing.T) {
	logger.Init()
	t.Setenv("SITE", "autoesa")
	t.Setenv("NUM_LISTINGS", "0")
	t.Setenv("MIN_PRICE", "600000")
	t.Setenv("MAX_PRICE", "400000")
	t.Setenv("OUTPUT_DIR", t.TempDir())

	err := run()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
	assert.Contains(t, err.Error(), "NUM_LISTINGS")
	assert.Contains(t, err.Error(), "MIN_PRICE")
}
