package main

import (
	"fmt"
	"log"
	"path"
	"strconv"
	"strings"
)

// storageRelativePath rewrites a file path within a batch to be relative to
// the batch root, so storage can be re-homed without touching the db
func storageRelativePath(batchDir string, filePath string) string {
	rel := strings.TrimPrefix(path.Clean(filePath), path.Clean(batchDir))
	return strings.TrimLeft(rel, "/")
}

// loadPage extracts one page from the issue METS document: sequence, labels,
// reel linkage, notes, and the four derived file references. The structmap
// only carries file IDs; the actual use class and location live in the
// document-wide file section, resolved through the metsIndex file table.
func (svc *ServiceContext) loadPage(lc *loadContext, idx *metsIndex, pd pageRef, iss *issue) error {
	mods, err := idx.descriptiveMetadata(pd.div.DmdID)
	if err != nil {
		return err
	}

	p := page{IssueID: iss.ID}
	seqStr := mods.sequenceStart()
	p.Sequence, err = strconv.Atoi(seqStr)
	if err != nil {
		return fmt.Errorf("%w: could not determine sequence number for page from '%s'", ErrPageParse, seqStr)
	}
	p.Number = mods.detailNumber("page number")

	reelNumber := mods.identifier("reel number")
	if reelNumber == "" {
		log.Printf("WARNING: unable to find reel number in page metadata for %s seq %d", idx.path, p.Sequence)
	} else {
		r, reelErr := svc.findOrCreateReel(lc, reelNumber, true)
		if reelErr != nil {
			return reelErr
		}
		p.ReelID = &r.ID
	}
	log.Printf("INFO: assigned page sequence %d", p.Sequence)

	if pd.sectionDmdID != "" {
		sectionMods, sErr := idx.descriptiveMetadata(pd.sectionDmdID)
		if sErr != nil {
			return sErr
		}
		p.SectionLabel = sectionMods.detailNumber("section label")
	}

	log.Printf("INFO: saving page; issue date %s, page sequence %d", iss.DateIssued.Format("2006-01-02"), p.Sequence)
	if err = svc.GDB.Create(&p).Error; err != nil {
		return err
	}

	for _, n := range mods.allNotes() {
		note := pageNote{PageID: p.ID, Type: n.Type, Label: n.Label, Text: strings.TrimSpace(n.Text)}
		if err = svc.GDB.Create(&note).Error; err != nil {
			return err
		}
	}

	metsDir := path.Dir(idx.path)
	for _, fptr := range pd.div.Fptrs {
		f, ok := idx.files[fptr.FileID]
		if !ok {
			return fmt.Errorf("%w: no file entry with ID %s in %s", ErrPageParse, fptr.FileID, idx.path)
		}
		absPath := path.Join(metsDir, strings.TrimSpace(f.FLocat.Href))
		fileName := storageRelativePath(lc.batchDir, absPath)

		switch f.Use {
		case "master":
			p.TiffFilename = fileName
		case "service":
			p.Jp2Filename = fileName
			if err = svc.resolvePageDimensions(idx, &p, f, absPath); err != nil {
				return err
			}
		case "derivative":
			p.PdfFilename = fileName
		case "ocr":
			p.OcrFilename = fileName
		}
	}

	if p.OcrFilename != "" {
		if lc.processOCR {
			if ocrErr := svc.processOCR(lc, iss, &p, true); ocrErr != nil {
				return ocrErr
			}
		} else {
			log.Printf("INFO: ocr processing disabled; skipping %s", p.OcrFilename)
		}
	} else {
		log.Printf("INFO: no ocr filename for issue %s page %d", iss.DateIssued.Format("2006-01-02"), p.Sequence)
	}

	return svc.GDB.Save(&p).Error
}

// resolvePageDimensions fills in the service image width and length, trying
// each technical metadata section attached to the file entry in order, then
// falling back to reading the image header directly. A page without both
// dimensions cannot be presented and fails to load.
func (svc *ServiceContext) resolvePageDimensions(idx *metsIndex, p *page, f *metsFile, absPath string) error {
	for _, admID := range strings.Fields(f.AdmID) {
		length, width := idx.imageDimensions(admID)
		if length != "" && width != "" {
			p.Jp2Length, _ = strconv.Atoi(length)
			p.Jp2Width, _ = strconv.Atoi(width)
			break
		}
	}

	if p.Jp2Width <= 0 || p.Jp2Length <= 0 {
		log.Printf("INFO: no dimensions in technical metadata for %s; inspecting image header", p.Jp2Filename)
		width, height, dimErr := imageFileDimensions(absPath)
		if dimErr != nil {
			return fmt.Errorf("%w: %s: %s", ErrMissingImageDimensions, p.Jp2Filename, dimErr.Error())
		}
		p.Jp2Width = width
		p.Jp2Length = height
	}

	if p.Jp2Width <= 0 || p.Jp2Length <= 0 {
		return fmt.Errorf("%w: no width/length for %s", ErrMissingImageDimensions, p.Jp2Filename)
	}
	return nil
}
