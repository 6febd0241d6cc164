package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"strings"

	"golang.org/x/image/tiff"
)

// imageFileDimensions reads width and height straight from an image file
// header. This is the fallback when a batch's technical metadata is silent
// about a service image's dimensions.
func imageFileDimensions(filePath string) (width int, height int, err error) {
	imgFile, err := os.Open(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to open %s for dimension check: %s", filePath, err.Error())
	}
	defer imgFile.Close()

	fileType := strings.ToUpper(path.Ext(filePath))
	fileType = strings.Replace(fileType, ".", "", 1)

	switch fileType {
	case "JP2":
		return jp2Dimensions(imgFile)
	case "TIF", "TIFF":
		cfg, cfgErr := tiff.DecodeConfig(imgFile)
		if cfgErr != nil {
			return 0, 0, cfgErr
		}
		return cfg.Width, cfg.Height, nil
	case "JPG", "JPEG":
		cfg, cfgErr := jpeg.DecodeConfig(imgFile)
		if cfgErr != nil {
			return 0, 0, cfgErr
		}
		return cfg.Width, cfg.Height, nil
	case "PNG":
		cfg, cfgErr := png.DecodeConfig(imgFile)
		if cfgErr != nil {
			return 0, 0, cfgErr
		}
		return cfg.Width, cfg.Height, nil
	}
	return 0, 0, fmt.Errorf("unsupported image format for %s", filePath)
}

var jp2Signature = []byte{0x00, 0x00, 0x00, 0x0C, 0x6A, 0x50, 0x20, 0x20, 0x0D, 0x0A, 0x87, 0x0A}

// jp2Dimensions pulls width and height from the ihdr box of a JPEG 2000
// container. Only the leading portion of the file is read; the header boxes
// sit well before any codestream data.
func jp2Dimensions(r io.Reader) (width int, height int, err error) {
	buf, err := io.ReadAll(io.LimitReader(r, 65536))
	if err != nil {
		return 0, 0, err
	}
	if len(buf) < 12 || !bytes.Equal(buf[:12], jp2Signature) {
		return 0, 0, errors.New("not a jp2 file")
	}
	return scanJP2Boxes(buf[12:])
}

// scanJP2Boxes walks a sequence of jp2 boxes ([length][type][payload]),
// descending into the jp2h superbox until the ihdr box is found
func scanJP2Boxes(buf []byte) (int, int, error) {
	for len(buf) >= 8 {
		boxLen := int(binary.BigEndian.Uint32(buf[:4]))
		boxType := string(buf[4:8])
		payloadStart := 8
		if boxLen == 1 {
			// extended length box
			if len(buf) < 16 {
				break
			}
			boxLen = int(binary.BigEndian.Uint64(buf[8:16]))
			payloadStart = 16
		} else if boxLen == 0 {
			boxLen = len(buf)
		}
		if boxLen < payloadStart || boxLen > len(buf) {
			boxLen = len(buf)
		}
		payload := buf[payloadStart:boxLen]

		switch boxType {
		case "jp2h":
			return scanJP2Boxes(payload)
		case "ihdr":
			if len(payload) < 8 {
				return 0, 0, errors.New("short ihdr box in jp2 header")
			}
			h := int(binary.BigEndian.Uint32(payload[0:4]))
			w := int(binary.BigEndian.Uint32(payload[4:8]))
			return w, h, nil
		}
		buf = buf[boxLen:]
	}
	return 0, 0, errors.New("no ihdr box found in jp2 header")
}
