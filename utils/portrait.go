package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var supportedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsRasterImage checks if the filename has a common raster image extension
func IsRasterImage(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return supportedImageExtensions[ext]
}

// GeneratePortraitThumbnail scales the image at sourcePath to fit a maxSize square,
// honouring the EXIF orientation, and saves it as a JPEG with a UUID name in portraitDir.
// It returns the file name relative to portraitDir.
func GeneratePortraitThumbnail(sourcePath, portraitDir string, maxSize int) (string, error) {
	if err := os.MkdirAll(portraitDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create portrait directory %s: %w", portraitDir, err)
	}

	img, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to open image %s: %w", sourcePath, err)
	}

	thumb := imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)

	name := uuid.NewString() + ".jpg"
	savePath := filepath.Join(portraitDir, name)
	if err := imaging.Save(thumb, savePath, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to save portrait to %s: %w", savePath, err)
	}
	return name, nil
}
