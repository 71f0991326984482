package tokenuri

import "strings"

// DefaultExtensions are the image suffixes stripped from filenames when
// deriving a token name.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg"}

// DisplayName strips exactly one recognized extension from filename. The
// match is case-insensitive; a filename without a recognized suffix is
// returned unchanged.
func DisplayName(filename string, extensions []string) string {
	lower := strings.ToLower(filename)
	for _, ext := range extensions {
		if ext == "" {
			continue
		}
		if strings.HasSuffix(lower, strings.ToLower(ext)) && len(filename) > len(ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}
