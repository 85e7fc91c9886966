package overlay

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ymhc/dailyemail/internal/config"
	"github.com/ymhc/dailyemail/internal/content"
	"github.com/ymhc/dailyemail/internal/logger"
)

// Extensions is the allow-list of input image types.
var Extensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".webp"}

// ErrOutputCollision is returned for an input whose output name was already
// taken by another input in the same batch.
var ErrOutputCollision = errors.New("output name already used in this batch")

// FileError records one input that could not be processed.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Result summarizes a batch run.
type Result struct {
	// InputCreated is set when the input directory did not exist; nothing
	// else happens on such a run.
	InputCreated bool
	Found        int
	Processed    []string // output paths
	Failed       []*FileError
}

// Processor applies the overlay to every image in a directory.
type Processor struct {
	inputDir    string
	outputDir   string
	layer       color.NRGBA
	opacity     float64
	hex         string
	jpegQuality int
	log         *logger.Logger
}

// NewProcessor creates a Processor from the overlay config.
func NewProcessor(cfg config.OverlayConfig, log *logger.Logger) (*Processor, error) {
	layer, err := LayerColor(cfg.Color, cfg.Opacity)
	if err != nil {
		return nil, err
	}
	quality := cfg.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	return &Processor{
		inputDir:    cfg.InputDir,
		outputDir:   cfg.OutputDir,
		layer:       layer,
		opacity:     cfg.Opacity,
		hex:         cfg.Color,
		jpegQuality: quality,
		log:         log.WithComponent("overlay"),
	}, nil
}

// Run processes the input directory. Per-file failures are logged and
// collected in the result; they never stop the batch.
func (p *Processor) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	if _, err := os.Stat(p.inputDir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(p.inputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create input directory: %w", err)
		}
		p.log.Info().Str("dir", p.inputDir).Msg("created input directory, place images in it and run again")
		res.InputCreated = true
		return res, nil
	} else if err != nil {
		return nil, err
	}

	if _, err := os.Stat(p.outputDir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		p.log.Info().Str("dir", p.outputDir).Msg("created output directory")
	}

	files, err := listImages(p.inputDir)
	if err != nil {
		return nil, err
	}
	res.Found = len(files)

	if len(files) == 0 {
		p.log.Info().Str("dir", p.inputDir).Msg("no images found")
		return res, nil
	}

	p.log.Info().
		Int("count", len(files)).
		Str("color", p.hex).
		Int("opacity_pct", int(p.opacity*100)).
		Msg("processing images")

	claimed := make(map[string]string, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		outName := OutputName(name)
		key := strings.ToLower(outName)
		var (
			out string
			err error
		)
		if prev, ok := claimed[key]; ok {
			err = fmt.Errorf("%w: %s is written by %s", ErrOutputCollision, outName, prev)
		} else {
			claimed[key] = name
			out, err = p.processFile(name, outName)
		}
		if err != nil {
			fe := &FileError{File: name, Err: err}
			res.Failed = append(res.Failed, fe)
			p.log.Error().Err(err).Str("file", name).Msg("error processing image")
			continue
		}

		res.Processed = append(res.Processed, out)
		p.log.Info().
			Int("index", len(res.Processed)).
			Int("total", len(files)).
			Str("file", name).
			Msg("processed")
	}

	p.log.Info().
		Int("processed", len(res.Processed)).
		Int("failed", len(res.Failed)).
		Str("dir", p.outputDir).
		Msg("done")

	return res, nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if content.HasExtension(entry.Name(), Extensions) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// OutputName maps an input file name to its output name. WebP has no encoder
// here, so those images are written as PNG. Run fails an input whose output
// name another input in the batch already took.
func OutputName(name string) string {
	ext := filepath.Ext(name)
	if strings.EqualFold(ext, ".webp") {
		return strings.TrimSuffix(name, ext) + ".png"
	}
	return name
}

func (p *Processor) processFile(name, outName string) (string, error) {
	in, err := os.Open(filepath.Join(p.inputDir, name))
	if err != nil {
		return "", err
	}
	defer in.Close()

	src, _, err := image.Decode(in)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	combined := Composite(src, p.layer)

	outPath := filepath.Join(p.outputDir, outName)
	if err := p.write(outPath, combined); err != nil {
		return "", err
	}
	return outPath, nil
}

// write encodes img into a temporary file beside path and renames it into
// place, so a failed encode leaves any existing file at path untouched.
func (p *Processor) write(path string, img *image.RGBA) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".overlay-*"+filepath.Ext(path))
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(tmp, Flatten(img), &jpeg.Options{Quality: p.jpegQuality})
	case ".bmp":
		err = bmp.Encode(tmp, img)
	case ".tiff":
		err = tiff.Encode(tmp, img, nil)
	default:
		err = png.Encode(tmp, img)
	}
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
