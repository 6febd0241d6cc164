package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexTitles(t *testing.T) {
	svc, rec := testService(t)

	require.NoError(t, svc.indexTitles())

	docs := rec.addedDocs()
	require.Len(t, docs, 2)
	ids := []string{docs[0]["id"].(string), docs[1]["id"].(string)}
	assert.Contains(t, ids, "/lccn/sn83045396/")
	assert.Contains(t, ids, "/lccn/sn83045400/")
	assert.Equal(t, "title", docs[0]["type"])
	assert.Equal(t, 1, rec.commitCount())
}
