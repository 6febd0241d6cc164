package main

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log"
	"os"
	"path"
	"strconv"
	"strings"
)

// altoString is one recognized word with its position on the page, in the
// coordinate units the OCR vendor captured
type altoString struct {
	Content string `xml:"CONTENT,attr"`
	HPos    string `xml:"HPOS,attr"`
	VPos    string `xml:"VPOS,attr"`
	Width   string `xml:"WIDTH,attr"`
	Height  string `xml:"HEIGHT,attr"`
}

type altoDoc struct {
	XMLName xml.Name `xml:"alto"`
	Layout  struct {
		Pages []struct {
			PrintSpace struct {
				TextBlocks []struct {
					TextLines []struct {
						Strings []altoString `xml:"String"`
					} `xml:"TextLine"`
				} `xml:"TextBlock"`
			} `xml:"PrintSpace"`
		} `xml:"Page"`
	} `xml:"Layout"`
}

// extractOCR parses an ALTO OCR file into plain text and a map of each word to
// the list of [x, y, width, height] boxes where it appears
func extractOCR(ocrPath string) (string, map[string][][]int, error) {
	xmlBytes, err := os.ReadFile(ocrPath)
	if err != nil {
		return "", nil, err
	}
	var doc altoDoc
	if err = xml.Unmarshal(xmlBytes, &doc); err != nil {
		return "", nil, fmt.Errorf("unable to parse ocr file %s: %s", ocrPath, err.Error())
	}

	var text strings.Builder
	coords := make(map[string][][]int)
	for _, pg := range doc.Layout.Pages {
		for _, block := range pg.PrintSpace.TextBlocks {
			for _, line := range block.TextLines {
				for i, word := range line.Strings {
					if i > 0 {
						text.WriteString(" ")
					}
					text.WriteString(word.Content)
					coords[word.Content] = append(coords[word.Content], []int{
						altoCoord(word.HPos), altoCoord(word.VPos),
						altoCoord(word.Width), altoCoord(word.Height),
					})
				}
				text.WriteString("\n")
			}
		}
	}
	return text.String(), coords, nil
}

// some vendors emit coordinates as floats; they are stored rounded down
func altoCoord(raw string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return int(v)
}

// processOCR extracts text and word coordinates from the page's OCR file,
// persists them as an OCR record, and submits the page search document to the
// index when indexing is enabled. The page record is re-saved after linking.
func (svc *ServiceContext) processOCR(lc *loadContext, iss *issue, p *page, index bool) error {
	ocrPath := path.Join(lc.batchDir, p.OcrFilename)
	log.Printf("INFO: extracting ocr text and word coords from %s", ocrPath)
	text, coords, err := extractOCR(ocrPath)
	if err != nil {
		return err
	}

	coordJSON, err := json.Marshal(coords)
	if err != nil {
		return err
	}
	ocrRec := ocr{PageID: p.ID, Text: text, WordCoordinates: string(coordJSON)}
	if err = svc.GDB.Create(&ocrRec).Error; err != nil {
		return err
	}
	p.OCR = &ocrRec

	if index {
		log.Printf("INFO: indexing ocr for page sequence %d", p.Sequence)
		if err = svc.Solr.add(p.solrDoc(lc.batch, &iss.Title, iss, text)); err != nil {
			return err
		}
		p.Indexed = true
	}
	return svc.GDB.Save(p).Error
}
