package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// CaptureInfo is what a portrait's EXIF block says about when and with what it was taken
type CaptureInfo struct {
	TakenAt     *time.Time `json:"taken_at,omitempty"`
	CameraMake  *string    `json:"camera_make,omitempty"`
	CameraModel *string    `json:"camera_model,omitempty"`
}

// helper to safely get a string tag, trimming null terminators
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.StringVal()
	if err != nil {
		val = tag.String()
	}
	val = strings.TrimRight(val, "\x00")
	if val == "" {
		return nil
	}
	return &val
}

// ReadCaptureInfo decodes the EXIF block of an image. Files without EXIF data (most
// scans and PNGs) yield an empty CaptureInfo and no error.
func ReadCaptureInfo(filePath string) (CaptureInfo, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return CaptureInfo{}, fmt.Errorf("exif: failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	exifData, err := exif.Decode(file)
	if err != nil {
		return CaptureInfo{}, nil
	}

	info := CaptureInfo{
		CameraMake:  getString(exifData, exif.Make),
		CameraModel: getString(exifData, exif.Model),
	}
	if dt, err := exifData.DateTime(); err == nil {
		info.TakenAt = &dt
	}
	return info, nil
}

// ReadCaptureDate reports the date a photo was taken, when its EXIF block records one
func ReadCaptureDate(filePath string) (time.Time, bool, error) {
	info, err := ReadCaptureInfo(filePath)
	if err != nil || info.TakenAt == nil {
		return time.Time{}, false, err
	}
	return *info.TakenAt, true, nil
}
