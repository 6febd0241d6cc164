package main

import (
	"fmt"
	"time"
)

type awardee struct {
	ID        int64
	OrgCode   string `gorm:"column:org_code;uniqueIndex"`
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type title struct {
	ID                 int64
	LCCN               string `gorm:"column:lccn;uniqueIndex"`
	Name               string
	PlaceOfPublication string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// batch is one delivered unit of digitized newspaper content. The name uniquely
// identifies it and encodes the awardee org code in its second segment.
type batch struct {
	ID               int64
	Name             string `gorm:"uniqueIndex"`
	ManifestFilename string
	AwardeeID        int64
	Awardee          awardee `gorm:"foreignKey:AwardeeID"`
	IssueCount       int
	PageCount        int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// reel records a microfilm reel within a batch. Implicit reels were not declared
// in the batch manifest and were inferred from page-level metadata instead.
type reel struct {
	ID        int64
	Number    string `gorm:"uniqueIndex:idx_reel_number_batch"`
	BatchID   int64  `gorm:"uniqueIndex:idx_reel_number_batch"`
	Implicit  bool
	CreatedAt time.Time
}

type issueNote struct {
	ID      int64
	IssueID int64
	Type    string
	Label   string
	Text    string
}

type issue struct {
	ID           int64
	TitleID      int64
	Title        title `gorm:"foreignKey:TitleID"`
	BatchID      int64
	Volume       string
	Number       string
	Edition      int
	EditionLabel string
	DateIssued   time.Time
	Notes        []issueNote `gorm:"foreignKey:IssueID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type pageNote struct {
	ID     int64
	PageID int64
	Type   string
	Label  string
	Text   string
}

// page holds the per-page file references from the METS file section. All
// filenames are stored relative to the batch root so storage can be re-homed
// without rewriting paths in the db.
type page struct {
	ID           int64
	IssueID      int64
	ReelID       *int64
	Sequence     int
	Number       string
	SectionLabel string
	TiffFilename string `gorm:"column:tiff_filename"`
	Jp2Filename  string `gorm:"column:jp2_filename"`
	Jp2Width     int    `gorm:"column:jp2_width"`
	Jp2Length    int    `gorm:"column:jp2_length"`
	PdfFilename  string `gorm:"column:pdf_filename"`
	OcrFilename  string `gorm:"column:ocr_filename"`
	Indexed      bool
	Notes        []pageNote `gorm:"foreignKey:PageID"`
	OCR          *ocr       `gorm:"foreignKey:PageID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ocr struct {
	ID              int64
	PageID          int64
	Text            string
	WordCoordinates string // JSON: word -> list of [x, y, width, height]
	CreatedAt       time.Time
}

// loadBatchEvent is an append-only audit record written at each major milestone
// of a batch load or purge, success or failure. It is never deleted, even when
// the batch itself is purged.
type loadBatchEvent struct {
	ID        int64
	BatchName string
	Message   string
	CreatedAt time.Time
}

// solrID is the canonical identifier for a page in the search index
func (p *page) solrID(t *title, iss *issue) string {
	return fmt.Sprintf("/lccn/%s/%s/ed-%d/seq-%d/", t.LCCN, iss.DateIssued.Format("2006-01-02"), iss.Edition, p.Sequence)
}

// solrDoc builds the search document submitted to the index for this page
func (p *page) solrDoc(b *batch, t *title, iss *issue, ocrText string) map[string]any {
	return map[string]any{
		"id":            p.solrID(t, iss),
		"type":          "page",
		"batch":         b.Name,
		"lccn":          t.LCCN,
		"title":         t.Name,
		"date":          iss.DateIssued.Format("20060102"),
		"edition":       iss.Edition,
		"sequence":      p.Sequence,
		"page":          p.Number,
		"section_label": p.SectionLabel,
		"ocr_eng":       ocrText,
	}
}

// solrDoc builds the search document for a title record
func (t *title) solrDoc() map[string]any {
	return map[string]any{
		"id":                   fmt.Sprintf("/lccn/%s/", t.LCCN),
		"type":                 "title",
		"lccn":                 t.LCCN,
		"title":                t.Name,
		"place_of_publication": t.PlaceOfPublication,
	}
}
