package entity

import (
	"net/url"
	"path"
	"strings"
)

// MarkerThumbnail marks names that are already generated thumbnails.
const MarkerThumbnail = "_thumb"

const extThumbnail = ".jpg"

var (
	ExtensionsVideo = []string{".mp4", ".mov", ".avi", ".wmv", ".mkv", ".webm"}
	ExtensionsImage = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

func IsVideo(name string) bool {
	return hasExtension(name, ExtensionsVideo)
}

func IsImage(name string) bool {
	return hasExtension(name, ExtensionsImage)
}

func IsThumbnail(name string) bool {
	return strings.Contains(name, MarkerThumbnail)
}

// ThumbnailName maps a source object name to the name of its thumbnail in
// the destination container. Videos map to "<base>.jpg" with the virtual
// directory dropped, everything else keeps its name. Callers check
// eligibility first.
func ThumbnailName(name string) string {
	if IsVideo(name) {
		base := path.Base(name)

		return strings.TrimSuffix(base, path.Ext(base)) + extThumbnail
	}

	return name
}

// ObjectURL builds the absolute location of an object, escaping every
// segment of its name.
func ObjectURL(base, container, name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return strings.TrimSuffix(base, "/") + "/" + url.PathEscape(container) + "/" + strings.Join(segments, "/")
}

func hasExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}
