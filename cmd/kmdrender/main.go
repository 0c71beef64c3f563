package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kmd-toolkit/internal/config"
	"kmd-toolkit/internal/logging"
	"kmd-toolkit/internal/preview"
	"kmd-toolkit/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	modelDir := flag.String("models", "", "Directory to scan for .kmd files (default: current directory)")
	textureDir := flag.String("textures", "", "Texture directory (default: <models>/textures)")
	outputDir := flag.String("output", "", "Output directory (default: previews)")
	size := flag.Int("size", 0, "Preview image size in pixels (default: 256)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	testN := flag.Int("test", 0, "Render only first N files for testing")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			logging.Fatalf("loading config: %v", err)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		ModelDir:   *modelDir,
		TextureDir: *textureDir,
		OutputDir:  *outputDir,
		RenderSize: *size,
		Workers:    *workers,
	})

	paths, err := findModels(cfg.ModelDir)
	if err != nil {
		logging.Fatalf("scanning %s: %v", cfg.ModelDir, err)
	}
	if *testN > 0 && *testN < len(paths) {
		paths = paths[:*testN]
	}
	if len(paths) == 0 {
		fmt.Println("No .kmd files to render.")
		os.Exit(0)
	}

	// Build texture index
	texIndex := texture.BuildIndex(cfg.TextureDir)
	texCache := texture.NewCache(texIndex)
	logging.Infof("textures: %d indexed in %s", texIndex.Len(), cfg.TextureDir)

	fmt.Println("KMD 3D Preview Renderer → WebP")
	fmt.Printf("Files: %d, Workers: %d\n", len(paths), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results := preview.Run(preview.Config{
		OutputDir:   cfg.OutputDir,
		TexResolver: texCache,
		RenderSize:  cfg.RenderSize,
		Supersample: cfg.Supersample,
		Workers:     cfg.Workers,
	}, paths)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	var errors []preview.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Rendered: %d/%d\n", success, len(paths))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := 20
		if len(errors) < limit {
			limit = len(errors)
		}
		for _, e := range errors[:limit] {
			fmt.Printf("  %s: %s\n", e.Path, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		logging.Warnf("creating %s: %v", cfg.OutputDir, err)
	} else if err := preview.WriteManifest(manifestPath, results); err != nil {
		logging.Warnf("manifest write failed: %v", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// findModels returns all .kmd files under dir, sorted for a stable batch
// order.
func findModels(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".kmd") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
