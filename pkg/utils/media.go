package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

var ErrUnsupportedMedia = errors.New("unsupported media type")

var allowedTypes = map[string]string{
	"jpg":  MediaKindImage,
	"jpeg": MediaKindImage,
	"png":  MediaKindImage,
	"mp4":  MediaKindVideo,
	"mov":  MediaKindVideo,
}

// Media describes a sniffed media file.
type Media struct {
	Kind      string
	MIME      string
	Extension string
}

// IsRemoteURL reports whether ref points at an http(s) resource rather than a local file.
func IsRemoteURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IsLocalFile reports whether ref names an existing regular file on disk.
func IsLocalFile(ref string) bool {
	if ref == "" || IsRemoteURL(ref) {
		return false
	}
	info, err := os.Stat(ref)
	return err == nil && info.Mode().IsRegular()
}

// SniffMedia inspects the file header and classifies it as image or video.
func SniffMedia(path string) (*Media, error) {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	if kind == types.Unknown {
		return nil, ErrUnsupportedMedia
	}

	mediaKind, ok := allowedTypes[kind.Extension]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, kind.Extension)
	}

	return &Media{
		Kind:      mediaKind,
		MIME:      kind.MIME.Value,
		Extension: kind.Extension,
	}, nil
}

// StagedFileName returns a collision-free file name that keeps the original extension.
func StagedFileName(original string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if _, ok := allowedTypes[strings.TrimPrefix(ext, ".")]; !ok {
		ext = ""
	}
	return id + ext, nil
}
