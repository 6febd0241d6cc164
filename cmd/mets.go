package main

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// The batch manifest and issue METS files are deeply namespaced (mets, mods,
// mix, ndnp, xlink). encoding/xml matches on local names when the field tags
// are unqualified, so one set of structs covers every namespace prefix the
// digitization vendors use.

type batchManifest struct {
	XMLName xml.Name `xml:"batch"`
	Name    string   `xml:"name,attr"`
	Reels   []struct {
		Number string `xml:"reelNumber,attr"`
		Text   string `xml:",chardata"`
	} `xml:"reel"`
	Issues []struct {
		LCCN         string `xml:"lccn,attr"`
		IssueDate    string `xml:"issueDate,attr"`
		EditionOrder string `xml:"editionOrder,attr"`
		Path         string `xml:",chardata"`
	} `xml:"issue"`
}

func parseBatchManifest(manifestPath string) (*batchManifest, error) {
	xmlBytes, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, err
	}
	var parsed batchManifest
	if err := xml.Unmarshal(xmlBytes, &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse batch manifest %s: %s", manifestPath, err.Error())
	}
	return &parsed, nil
}

type modsDetail struct {
	Type    string `xml:"type,attr"`
	Number  string `xml:"number"`
	Caption string `xml:"caption"`
}

type modsPart struct {
	Details []modsDetail `xml:"detail"`
	Extent  struct {
		Start string `xml:"start"`
	} `xml:"extent"`
}

type modsIdentifier struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

type modsNote struct {
	Type  string `xml:"type,attr"`
	Label string `xml:"displayLabel,attr"`
	Text  string `xml:",chardata"`
}

type modsRelatedItem struct {
	Type        string           `xml:"type,attr"`
	Identifiers []modsIdentifier `xml:"identifier"`
	Part        modsPart         `xml:"part"`
	Notes       []modsNote       `xml:"note"`
}

// modsData is one descriptive metadata subtree (issue, section or page level).
// Vendors place part/identifier/note data either directly under mods or inside
// a relatedItem, so the accessors below search both.
type modsData struct {
	Part         modsPart          `xml:"part"`
	RelatedItems []modsRelatedItem `xml:"relatedItem"`
	Identifiers  []modsIdentifier  `xml:"identifier"`
	Notes        []modsNote        `xml:"note"`
	OriginInfo   struct {
		DateIssued string `xml:"dateIssued"`
	} `xml:"originInfo"`
}

func (m *modsData) detail(detailType string) *modsDetail {
	for i := range m.Part.Details {
		if m.Part.Details[i].Type == detailType {
			return &m.Part.Details[i]
		}
	}
	for r := range m.RelatedItems {
		for i := range m.RelatedItems[r].Part.Details {
			if m.RelatedItems[r].Part.Details[i].Type == detailType {
				return &m.RelatedItems[r].Part.Details[i]
			}
		}
	}
	return nil
}

func (m *modsData) detailNumber(detailType string) string {
	d := m.detail(detailType)
	if d == nil {
		return ""
	}
	return strings.TrimSpace(d.Number)
}

func (m *modsData) detailCaption(detailType string) string {
	d := m.detail(detailType)
	if d == nil {
		return ""
	}
	return strings.TrimSpace(d.Caption)
}

func (m *modsData) identifier(idType string) string {
	for _, id := range m.Identifiers {
		if id.Type == idType {
			return strings.TrimSpace(id.Text)
		}
	}
	for _, ri := range m.RelatedItems {
		for _, id := range ri.Identifiers {
			if id.Type == idType {
				return strings.TrimSpace(id.Text)
			}
		}
	}
	return ""
}

func (m *modsData) dateIssued() string {
	return strings.TrimSpace(m.OriginInfo.DateIssued)
}

// sequenceStart returns the raw page sequence value from the extent block
func (m *modsData) sequenceStart() string {
	if s := strings.TrimSpace(m.Part.Extent.Start); s != "" {
		return s
	}
	for _, ri := range m.RelatedItems {
		if s := strings.TrimSpace(ri.Part.Extent.Start); s != "" {
			return s
		}
	}
	return ""
}

func (m *modsData) allNotes() []modsNote {
	notes := make([]modsNote, 0, len(m.Notes))
	notes = append(notes, m.Notes...)
	for _, ri := range m.RelatedItems {
		notes = append(notes, ri.Notes...)
	}
	return notes
}

type metsDiv struct {
	Type  string `xml:"TYPE,attr"`
	DmdID string `xml:"DMDID,attr"`
	Fptrs []struct {
		FileID string `xml:"FILEID,attr"`
	} `xml:"fptr"`
	Divs []metsDiv `xml:"div"`
}

type metsFile struct {
	ID     string `xml:"ID,attr"`
	Use    string `xml:"USE,attr"`
	AdmID  string `xml:"ADMID,attr"`
	FLocat struct {
		Href string `xml:"href,attr"`
	} `xml:"FLocat"`
}

type mixSpatialMetrics struct {
	ImageLength string `xml:"ImageLength"`
	ImageWidth  string `xml:"ImageWidth"`
}

type metsTechMD struct {
	ID     string `xml:"ID,attr"`
	MdWrap struct {
		XMLData struct {
			Mix struct {
				ImagingPerformanceAssessment struct {
					SpatialMetrics mixSpatialMetrics `xml:"SpatialMetrics"`
				} `xml:"ImagingPerformanceAssessment"`
			} `xml:"mix"`
		} `xml:"xmlData"`
	} `xml:"mdWrap"`
}

type metsDmdSec struct {
	ID     string `xml:"ID,attr"`
	MdWrap struct {
		XMLData struct {
			Mods modsData `xml:"mods"`
		} `xml:"xmlData"`
	} `xml:"mdWrap"`
}

type metsDocument struct {
	XMLName xml.Name     `xml:"mets"`
	DmdSecs []metsDmdSec `xml:"dmdSec"`
	AmdSecs []struct {
		TechMDs []metsTechMD `xml:"techMD"`
	} `xml:"amdSec"`
	FileSec struct {
		FileGrps []struct {
			Files []metsFile `xml:"file"`
		} `xml:"fileGrp"`
	} `xml:"fileSec"`
	StructMap struct {
		Divs []metsDiv `xml:"div"`
	} `xml:"structMap"`
}

// metsIndex wraps one parsed METS document with identifier lookup tables built
// once per parse: dmdSec ID to MODS subtree, file ID to file entry, techMD ID
// to spatial metrics. Pages cross-reference these tables constantly, so the
// one-time build keeps each lookup O(1).
type metsIndex struct {
	path  string
	doc   *metsDocument
	dmd   map[string]*modsData
	files map[string]*metsFile
	tech  map[string]*mixSpatialMetrics
}

func parseMETS(metsPath string) (*metsIndex, error) {
	xmlBytes, err := os.ReadFile(metsPath)
	if err != nil {
		return nil, err
	}
	var doc metsDocument
	if err := xml.Unmarshal(xmlBytes, &doc); err != nil {
		return nil, fmt.Errorf("unable to parse mets file %s: %s", metsPath, err.Error())
	}

	idx := metsIndex{path: metsPath, doc: &doc,
		dmd:   make(map[string]*modsData),
		files: make(map[string]*metsFile),
		tech:  make(map[string]*mixSpatialMetrics),
	}
	for i := range doc.DmdSecs {
		idx.dmd[doc.DmdSecs[i].ID] = &doc.DmdSecs[i].MdWrap.XMLData.Mods
	}
	for a := range doc.AmdSecs {
		for t := range doc.AmdSecs[a].TechMDs {
			tmd := &doc.AmdSecs[a].TechMDs[t]
			idx.tech[tmd.ID] = &tmd.MdWrap.XMLData.Mix.ImagingPerformanceAssessment.SpatialMetrics
		}
	}
	for g := range doc.FileSec.FileGrps {
		for f := range doc.FileSec.FileGrps[g].Files {
			file := &doc.FileSec.FileGrps[g].Files[f]
			idx.files[file.ID] = file
		}
	}
	return &idx, nil
}

// descriptiveMetadata returns the MODS subtree nested inside the dmdSec with
// the given ID. A missing section is a defect in the source batch.
func (idx *metsIndex) descriptiveMetadata(dmdID string) (*modsData, error) {
	m, ok := idx.dmd[dmdID]
	if !ok {
		return nil, fmt.Errorf("%w: no dmdSec with ID %s in %s", ErrMetadataNotFound, dmdID, idx.path)
	}
	return m, nil
}

// imageDimensions returns the image length and width recorded in the technical
// metadata section with the given ADMID. Both come back empty when the section
// or its imaging assessment block is absent; the caller decides whether that
// is fatal.
func (idx *metsIndex) imageDimensions(admID string) (length string, width string) {
	sm, ok := idx.tech[admID]
	if !ok {
		return "", ""
	}
	return strings.TrimSpace(sm.ImageLength), strings.TrimSpace(sm.ImageWidth)
}

// issueDiv finds the structural division of type np:issue
func (idx *metsIndex) issueDiv() *metsDiv {
	return findDiv(idx.doc.StructMap.Divs, "np:issue")
}

func findDiv(divs []metsDiv, divType string) *metsDiv {
	for i := range divs {
		if divs[i].Type == divType {
			return &divs[i]
		}
		if found := findDiv(divs[i].Divs, divType); found != nil {
			return found
		}
	}
	return nil
}

// pageRef pairs a page division with the dmd ID of its nearest enclosing
// np:section division, when one exists
type pageRef struct {
	div          *metsDiv
	sectionDmdID string
}

// collectPages walks the division tree beneath div in document order,
// gathering np:page divisions and tracking the enclosing section
func collectPages(div *metsDiv, sectionDmdID string, out []pageRef) []pageRef {
	for i := range div.Divs {
		child := &div.Divs[i]
		switch child.Type {
		case "np:page":
			out = append(out, pageRef{div: child, sectionDmdID: sectionDmdID})
		case "np:section":
			out = collectPages(child, child.DmdID, out)
		default:
			out = collectPages(child, sectionDmdID, out)
		}
	}
	return out
}
