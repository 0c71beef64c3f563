package preview

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"kmd-toolkit/internal/kmd"
	"kmd-toolkit/internal/logging"
	"kmd-toolkit/internal/postprocess"
	"kmd-toolkit/internal/raster"
	"kmd-toolkit/internal/texture"

	"github.com/HugoSmits86/nativewebp"
)

// Config holds all shared resources for a batch preview run.
type Config struct {
	OutputDir   string
	TexResolver texture.Resolver
	RenderSize  int
	Supersample int
	Workers     int
}

// Result holds the outcome of rendering one KMD file.
type Result struct {
	Path     string `json:"path"`
	Stem     string `json:"stem"`
	Models   int    `json:"models"`
	Vertices int    `json:"vertices"`
	Indices  int    `json:"indices"`
	Image    string `json:"image,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Run renders all files using a worker pool. A failed file records its
// error in its Result and the batch continues; the per-file import itself
// is still all-or-nothing.
func Run(cfg Config, paths []string) []Result {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					logging.Infof("[%d/%d] %.1f files/sec", p, total, float64(p)/elapsed)
				}
			}
		}
	}()

	// Worker pool
	fileChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				results[idx] = processFile(cfg, paths[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range paths {
		fileChan <- i
	}
	close(fileChan)

	wg.Wait()
	close(done)

	return results
}

func processFile(cfg Config, path string) Result {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res := Result{Path: path, Stem: stem}

	f, err := kmd.Import(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Models = len(f.Blocks)
	for i := range f.Blocks {
		res.Vertices += len(f.Blocks[i].Vertices)
		res.Indices += len(f.Blocks[i].Indices)
	}

	img := raster.RenderModel(f.Blocks, f.Header.ScaleMultiplier(), cfg.TexResolver, cfg.RenderSize, cfg.Supersample)
	if cfg.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.RenderSize)
	}

	outPath := filepath.Join(cfg.OutputDir, stem+".webp")
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		res.Error = err.Error()
		return res
	}

	out, err := os.Create(outPath)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer out.Close()

	if err := nativewebp.Encode(out, img, nil); err != nil {
		res.Error = "WebP encode: " + err.Error()
		return res
	}

	res.Image = stem + ".webp"
	res.Success = true
	return res
}
