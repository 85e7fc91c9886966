package email

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// RelativeSrc returns filePath relative to the directory of previewPath, with
// forward slashes, for use as an img src in the preview file.
func RelativeSrc(previewPath, filePath string) (string, error) {
	base, err := filepath.Abs(filepath.Dir(previewPath))
	if err != nil {
		return "", err
	}
	target, err := filepath.Abs(filePath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// DataURI inlines img as a data: URL.
func DataURI(img InlineImage) string {
	mediaType := mime.TypeByExtension(filepath.Ext(img.Filename))
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// WritePreview writes htmlBody to path with every cid:<id> reference in refs
// replaced by its local source, so the file opens in a browser.
func WritePreview(path, htmlBody string, refs map[string]string) error {
	pairs := make([]string, 0, len(refs)*2)
	for cid, src := range refs {
		pairs = append(pairs, "cid:"+cid, src)
	}
	body := strings.NewReplacer(pairs...).Replace(htmlBody)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create preview directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}
