package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// solrRecorder stands in for the index during tests, capturing every update
// payload the loader submits
type solrRecorder struct {
	server   *httptest.Server
	mu       sync.Mutex
	payloads []map[string]any
	failNext bool
}

func newSolrRecorder(t *testing.T) *solrRecorder {
	rec := &solrRecorder{}
	rec.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		if rec.failNext {
			rec.failNext = false
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.Method == "POST" {
			body, _ := io.ReadAll(r.Body)
			var payload map[string]any
			if err := json.Unmarshal(body, &payload); err == nil {
				rec.payloads = append(rec.payloads, payload)
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(rec.server.Close)
	return rec
}

// addedDocs returns the documents submitted through add calls, in order
func (rec *solrRecorder) addedDocs() []map[string]any {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	var docs []map[string]any
	for _, p := range rec.payloads {
		if add, ok := p["add"].(map[string]any); ok {
			if doc, ok := add["doc"].(map[string]any); ok {
				docs = append(docs, doc)
			}
		}
	}
	return docs
}

func (rec *solrRecorder) commitCount() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	count := 0
	for _, p := range rec.payloads {
		if _, ok := p["commit"]; ok {
			count++
		}
	}
	return count
}

func (rec *solrRecorder) deleteQueries() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	var queries []string
	for _, p := range rec.payloads {
		if del, ok := p["delete"].(map[string]any); ok {
			if q, ok := del["query"].(string); ok {
				queries = append(queries, q)
			}
		}
	}
	return queries
}

// testService builds a service context backed by a throwaway sqlite db and a
// recording solr endpoint, seeded with the awardee and titles the testdata
// batches reference
func testService(t *testing.T) (*ServiceContext, *solrRecorder) {
	dbPath := filepath.Join(t.TempDir(), "ndnp.db")
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	err = gdb.AutoMigrate(&awardee{}, &title{}, &batch{}, &reel{}, &issue{}, &issueNote{},
		&page{}, &pageNote{}, &ocr{}, &loadBatchEvent{})
	require.NoError(t, err)

	require.NoError(t, gdb.Create(&awardee{OrgCode: "uuml", Name: "University of Utah"}).Error)
	require.NoError(t, gdb.Create(&title{LCCN: "sn83045396", Name: "The Salt Lake herald.",
		PlaceOfPublication: "Salt Lake City [Utah]"}).Error)
	require.NoError(t, gdb.Create(&title{LCCN: "sn83045400", Name: "The Broad Ax.",
		PlaceOfPublication: "Salt Lake City, Utah"}).Error)

	rec := newSolrRecorder(t)
	svc := &ServiceContext{
		Version:    "test",
		GDB:        gdb,
		StorageDir: "testdata",
		Solr:       newSolrClient(rec.server.URL, rec.server.Client()),
		ProcessOCR: true,
		HTTPClient: rec.server.Client(),
	}
	return svc, rec
}
