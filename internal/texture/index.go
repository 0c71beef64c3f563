package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// textureExts are the recognized texture file extensions. TGA takes
// priority over the others for the same stem (alpha channel).
var textureExts = map[string]bool{
	".tga":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// Index maps lowercase texture stems to filesystem paths.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir recursively for texture files. A missing or empty
// directory yields an empty index, not an error: models without textures
// render with their default color.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !textureExts[ext] {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		existing, exists := idx.entries[stem]
		if !exists {
			idx.entries[stem] = path
		} else if ext == ".tga" && strings.ToLower(filepath.Ext(existing)) != ".tga" {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

// ResolvePath returns the filesystem path for a texture reference, or
// ("", false). The reference may be a bare stem or a full source path with
// either path separator; only the stem is matched.
func (idx *Index) ResolvePath(ref string) (string, bool) {
	ref = strings.ReplaceAll(ref, "\\", "/")
	base := filepath.Base(ref)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))

	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
