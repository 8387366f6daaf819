package scoring

import (
	"path/filepath"
	"strings"
)

// DefaultTypeWeight applies to extensions without a listed prior.
const DefaultTypeWeight = 0.8

var typeWeights = map[string]float64{
	".pdf":   1.0,
	".docx":  0.9,
	".doc":   0.9,
	".pptx":  0.9,
	".ipynb": 0.9,
	".xlsx":  0.9,
	".txt":   0.85,
	".md":    0.85,
	".zip":   0.4,
	".dmg":   0.3,
	".png":   0.2,
	".jpg":   0.2,
	".jpeg":  0.2,
}

// FileTypeWeight returns the prior for the file's extension, in (0,1].
func FileTypeWeight(filename string) float64 {
	if w, ok := typeWeights[strings.ToLower(filepath.Ext(filename))]; ok {
		return w
	}
	return DefaultTypeWeight
}

// Stem returns the base name of filename without its extension.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
