package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolrAdd(t *testing.T) {
	rec := newSolrRecorder(t)
	client := newSolrClient(rec.server.URL, rec.server.Client())

	require.NoError(t, client.add(map[string]any{"id": "/lccn/sn83045396/", "type": "title"}))

	docs := rec.addedDocs()
	require.Len(t, docs, 1)
	assert.Equal(t, "/lccn/sn83045396/", docs[0]["id"])
	assert.Equal(t, "title", docs[0]["type"])
}

func TestSolrCommitAndDelete(t *testing.T) {
	rec := newSolrRecorder(t)
	client := newSolrClient(rec.server.URL, rec.server.Client())

	require.NoError(t, client.commit())
	require.NoError(t, client.deleteByQuery(`batch:"batch_uuml_thys_ver01"`))

	assert.Equal(t, 1, rec.commitCount())
	queries := rec.deleteQueries()
	require.Len(t, queries, 1)
	assert.Equal(t, `batch:"batch_uuml_thys_ver01"`, queries[0])
}

func TestSolrUpdateFailure(t *testing.T) {
	rec := newSolrRecorder(t)
	client := newSolrClient(rec.server.URL, rec.server.Client())

	rec.failNext = true
	assert.Error(t, client.commit())
	assert.NoError(t, client.commit())
}

func TestSolrPing(t *testing.T) {
	rec := newSolrRecorder(t)
	client := newSolrClient(rec.server.URL, rec.server.Client())
	assert.NoError(t, client.ping())

	rec.server.Close()
	assert.Error(t, client.ping())
}

func TestPageSolrDoc(t *testing.T) {
	tl := title{LCCN: "sn83045396", Name: "The Salt Lake herald."}
	iss := issue{Edition: 1, DateIssued: time.Date(1901, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := batch{Name: "batch_uuml_thys_ver01"}
	p := page{Sequence: 2, Number: "2", SectionLabel: "Magazine Section"}

	assert.Equal(t, "/lccn/sn83045396/1901-01-01/ed-1/seq-2/", p.solrID(&tl, &iss))

	doc := p.solrDoc(&b, &tl, &iss, "some ocr text")
	assert.Equal(t, "/lccn/sn83045396/1901-01-01/ed-1/seq-2/", doc["id"])
	assert.Equal(t, "page", doc["type"])
	assert.Equal(t, "batch_uuml_thys_ver01", doc["batch"])
	assert.Equal(t, "19010101", doc["date"])
	assert.Equal(t, "Magazine Section", doc["section_label"])
	assert.Equal(t, "some ocr text", doc["ocr_eng"])
}

func TestTitleSolrDoc(t *testing.T) {
	tl := title{LCCN: "sn83045396", Name: "The Salt Lake herald.", PlaceOfPublication: "Salt Lake City [Utah]"}
	doc := tl.solrDoc()
	assert.Equal(t, "/lccn/sn83045396/", doc["id"])
	assert.Equal(t, "title", doc["type"])
	assert.Equal(t, "Salt Lake City [Utah]", doc["place_of_publication"])
}
