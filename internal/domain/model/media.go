package model

import (
	"path/filepath"
	"strings"
)

type MediaKind string

const (
	MediaPhoto       MediaKind = "photo"
	MediaVideo       MediaKind = "video"
	MediaUnsupported MediaKind = "unsupported"
)

var extKinds = map[string]MediaKind{
	".jpg":  MediaPhoto,
	".jpeg": MediaPhoto,
	".png":  MediaPhoto,
	".gif":  MediaPhoto,
	".mp4":  MediaVideo,
}

// KindFromPath classifies a file by its extension, case-insensitively.
func KindFromPath(path string) MediaKind {
	if k, ok := extKinds[strings.ToLower(filepath.Ext(path))]; ok {
		return k
	}
	return MediaUnsupported
}

// Extension returns the file extension used when a relayed submission is archived.
func (k MediaKind) Extension() string {
	switch k {
	case MediaPhoto:
		return ".jpg"
	case MediaVideo:
		return ".mp4"
	default:
		return ""
	}
}

func (k MediaKind) Supported() bool {
	return k == MediaPhoto || k == MediaVideo
}
