// Package imageurl turns stored image references into displayable URLs.
package imageurl

import "strings"

// UploadPrefix is the directory the backend serves uploaded images from.
const UploadPrefix = "uploads"

var absoluteSchemes = []string{"http://", "https://", "data:", "blob:"}

// Origin derives the image origin from the API base URL by dropping the
// versioned API path.
func Origin(apiURL string) string {
	origin := strings.TrimRight(strings.TrimSpace(apiURL), "/")
	origin = strings.TrimSuffix(origin, "/api/v1")

	return strings.TrimRight(origin, "/")
}

// Normalize maps ref to an absolute URL under origin. The second result is
// false when ref is empty and the caller should render a placeholder.
func Normalize(ref, origin string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	lower := strings.ToLower(ref)
	for _, scheme := range absoluteSchemes {
		if strings.HasPrefix(lower, scheme) {
			return ref, true
		}
	}

	origin = strings.TrimRight(origin, "/")
	ref = strings.TrimLeft(ref, "/")

	if strings.HasPrefix(ref, UploadPrefix+"/") {
		return origin + "/" + ref, true
	}

	return origin + "/" + UploadPrefix + "/" + ref, true
}
