package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageRelativePath(t *testing.T) {
	assert.Equal(t, "sn83045396/0001.jp2",
		storageRelativePath("/storage/batch_uuml_thys_ver01", "/storage/batch_uuml_thys_ver01/sn83045396/0001.jp2"))
	assert.Equal(t, "sn83045396/0001.jp2",
		storageRelativePath("testdata/batch_uuml_thys_ver01", "testdata/batch_uuml_thys_ver01/sn83045396/0001.jp2"))
	// a trailing slash on the batch dir makes no difference
	assert.Equal(t, "sn83045396/0001.jp2",
		storageRelativePath("/storage/batch_uuml_thys_ver01/", "/storage/batch_uuml_thys_ver01/sn83045396/0001.jp2"))
}
