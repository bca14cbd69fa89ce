package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AssetServer creates a handler to serve static files from a specific base directory.
// It expects the request path to contain the relative path within that base directory,
// with the route prefix matching subDir:
//
//	r.Get("/portraits/*", AssetServer(cfg.MediaStoragePath, "portraits", logger))
func AssetServer(baseStoragePath, subDir string, logger *zap.Logger) (http.HandlerFunc, error) {
	baseStoragePath = filepath.Clean(baseStoragePath)
	fullAssetDirPath := filepath.Clean(filepath.Join(baseStoragePath, subDir))

	if !strings.HasPrefix(fullAssetDirPath, baseStoragePath) {
		return nil, fmt.Errorf("asset subdirectory '%s' resolves outside base storage path '%s'", subDir, baseStoragePath)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		routePrefix := "/api/" + subDir + "/"
		relativePath := strings.TrimPrefix(r.URL.Path, routePrefix)

		if relativePath == "" || strings.Contains(relativePath, "..") {
			WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid asset path")
			return
		}

		cleanedAssetPath := filepath.Clean(filepath.Join(fullAssetDirPath, relativePath))
		if !strings.HasPrefix(cleanedAssetPath, fullAssetDirPath+string(filepath.Separator)) {
			logger.Warn("asset access outside designated directory",
				zap.String("request", r.URL.Path),
				zap.String("resolved", cleanedAssetPath),
			)
			WriteAPIError(w, http.StatusForbidden, "forbidden", "Forbidden")
			return
		}

		info, err := os.Stat(cleanedAssetPath)
		if os.IsNotExist(err) || (err == nil && info.IsDir()) {
			http.NotFound(w, r)
			return
		} else if err != nil {
			logger.Error("failed to stat asset file", zap.String("path", cleanedAssetPath), zap.Error(err))
			WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Internal Server Error")
			return
		}

		cacheDuration := 24 * time.Hour
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheDuration.Seconds())))
		w.Header().Set("Expires", time.Now().Add(cacheDuration).Format(http.TimeFormat))

		http.ServeFile(w, r, cleanedAssetPath)
	}, nil
}
