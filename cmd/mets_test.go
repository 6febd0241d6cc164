package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatchManifest(t *testing.T) {
	manifest, err := parseBatchManifest("testdata/batch_uuml_thys_ver01/batch_1.xml")
	require.NoError(t, err)
	assert.Equal(t, "batch_uuml_thys_ver01", manifest.Name)

	require.Len(t, manifest.Reels, 2)
	assert.Equal(t, "1", manifest.Reels[0].Number)
	assert.Equal(t, "2", manifest.Reels[1].Number)

	require.Len(t, manifest.Issues, 2)
	assert.Equal(t, "sn83045396", manifest.Issues[0].LCCN)
	assert.Equal(t, "1901-01-01", manifest.Issues[0].IssueDate)
	assert.Equal(t, "sn83045396/1901010101.xml", strings.TrimSpace(manifest.Issues[0].Path))
	assert.Equal(t, "sn83045396/1901010201.xml", strings.TrimSpace(manifest.Issues[1].Path))
}

func TestParseBatchManifestMissing(t *testing.T) {
	_, err := parseBatchManifest("testdata/nonexistent/batch_1.xml")
	assert.Error(t, err)
}

func TestParseMETS(t *testing.T) {
	idx, err := parseMETS("testdata/batch_uuml_thys_ver01/sn83045396/1901010101.xml")
	require.NoError(t, err)

	assert.Len(t, idx.dmd, 4)
	assert.Len(t, idx.files, 8)
	assert.Len(t, idx.tech, 2)

	issueDiv := idx.issueDiv()
	require.NotNil(t, issueDiv)
	assert.Equal(t, "issueModsBib", issueDiv.DmdID)

	mods, err := idx.descriptiveMetadata("issueModsBib")
	require.NoError(t, err)
	assert.Equal(t, "sn83045396", mods.identifier("lccn"))
	assert.Equal(t, "1901-01-01", mods.dateIssued())
	assert.Equal(t, "30", mods.detailNumber("volume"))
	assert.Equal(t, "191", mods.detailNumber("issue"))
	assert.Equal(t, "1", mods.detailNumber("edition"))
	assert.Equal(t, "Morning Edition", mods.detailCaption("edition"))

	_, err = idx.descriptiveMetadata("noSuchSection")
	assert.ErrorIs(t, err, ErrMetadataNotFound)
}

func TestMETSImageDimensions(t *testing.T) {
	idx, err := parseMETS("testdata/batch_uuml_thys_ver01/sn83045396/1901010101.xml")
	require.NoError(t, err)

	length, width := idx.imageDimensions("mixserviceFile1")
	assert.Equal(t, "9120", length)
	assert.Equal(t, "6499", width)

	length, width = idx.imageDimensions("noSuchTechMD")
	assert.Equal(t, "", length)
	assert.Equal(t, "", width)
}

func TestCollectPages(t *testing.T) {
	idx, err := parseMETS("testdata/batch_uuml_thys_ver01/sn83045396/1901010101.xml")
	require.NoError(t, err)

	pageRefs := collectPages(idx.issueDiv(), "", nil)
	require.Len(t, pageRefs, 2)

	assert.Equal(t, "pageModsBib1", pageRefs[0].div.DmdID)
	assert.Equal(t, "", pageRefs[0].sectionDmdID)
	require.Len(t, pageRefs[0].div.Fptrs, 4)
	assert.Equal(t, "masterFile1", pageRefs[0].div.Fptrs[0].FileID)

	// the second page sits inside an np:section division
	assert.Equal(t, "pageModsBib2", pageRefs[1].div.DmdID)
	assert.Equal(t, "sectionModsBib1", pageRefs[1].sectionDmdID)
}

func TestPageModsAccessors(t *testing.T) {
	idx, err := parseMETS("testdata/batch_uuml_thys_ver01/sn83045396/1901010101.xml")
	require.NoError(t, err)

	mods, err := idx.descriptiveMetadata("pageModsBib1")
	require.NoError(t, err)
	assert.Equal(t, "1", mods.sequenceStart())
	assert.Equal(t, "1", mods.detailNumber("page number"))
	// the reel number lives under a relatedItem, not directly under mods
	assert.Equal(t, "1", mods.identifier("reel number"))
	assert.Equal(t, "0001", mods.identifier("reel sequence number"))

	notes := mods.allNotes()
	require.Len(t, notes, 1)
	assert.Equal(t, "agencyResponsibleForReproduction", notes[0].Type)
	assert.Equal(t, "University of Utah", notes[0].Label)

	sectionMods, err := idx.descriptiveMetadata("sectionModsBib1")
	require.NoError(t, err)
	assert.Equal(t, "Magazine Section", sectionMods.detailNumber("section label"))
}

func TestFileEntries(t *testing.T) {
	idx, err := parseMETS("testdata/batch_uuml_thys_ver01/sn83045396/1901010101.xml")
	require.NoError(t, err)

	f, ok := idx.files["serviceFile1"]
	require.True(t, ok)
	assert.Equal(t, "service", f.Use)
	assert.Equal(t, "mixserviceFile1", f.AdmID)
	assert.Equal(t, "0001.jp2", f.FLocat.Href)

	// multiple ADMIDs come through as one space-delimited attribute value
	f, ok = idx.files["serviceFile2"]
	require.True(t, ok)
	assert.Equal(t, "mixMissing mixserviceFile2", f.AdmID)
}
