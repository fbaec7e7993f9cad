package restserver

import (
	"embed"
	"io/fs"
	"os"
)

// Embed the dashboard assets
//
//go:embed all:assets
var assetsFS embed.FS

// AssetsDirEnv names a directory to serve assets from instead of the embedded copy
const AssetsDirEnv = "NSDISRUPTIONS_ASSETS_DIR"

// GetAssets returns the assets filesystem, either from disk or embedded
func GetAssets() (fs.FS, error) {
	// Serving from disk lets templates and CSS be edited without a rebuild.
	if dir := os.Getenv(AssetsDirEnv); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(dir), nil
		}
	}

	return fs.Sub(assetsFS, "assets")
}
