package preview

import (
	"os"

	json "github.com/goccy/go-json"
)

// WriteManifest writes the batch results as manifest.json so a gallery or
// asset pipeline can consume the preview set without re-reading the KMD
// files.
func WriteManifest(path string, results []Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
