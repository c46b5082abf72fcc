// Package media provides the Media domain entity and subtitle locations.
package media

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

var (
	ErrEmptyLocation = errors.New("empty media location")
	ErrNoScheme      = errors.New("media URI has no scheme")
)

// Media represents a playable item handed to the backend player.
type Media struct {
	ID       string        // UUID, assigned on creation
	Location string        // URI understood by the backend (file://, http://, rtsp://, ...)
	Duration time.Duration // Zero until known
}

// FromPath creates a Media for a local file.
// Relative paths are resolved against the working directory.
func FromPath(path string) (*Media, error) {
	loc, err := fileURI(path)
	if err != nil {
		return nil, err
	}
	return &Media{ID: uuid.New().String(), Location: loc}, nil
}

// FromURI creates a Media for a network or custom-scheme location.
func FromURI(raw string) (*Media, error) {
	if raw == "" {
		return nil, ErrEmptyLocation
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid media URI %q", raw)
	}
	if u.Scheme == "" {
		return nil, errors.Wrapf(ErrNoScheme, "media URI %q", raw)
	}
	return &Media{ID: uuid.New().String(), Location: u.String()}, nil
}

// Open creates a Media from either a URI with a scheme or a local path.
func Open(location string) (*Media, error) {
	if u, err := url.Parse(location); err == nil && len(u.Scheme) > 1 {
		return FromURI(location)
	}
	return FromPath(location)
}

// WithDuration returns a copy of m with the given duration.
func (m Media) WithDuration(d time.Duration) *Media {
	m.Duration = d
	return &m
}

// HasDuration reports whether the duration is known.
func (m *Media) HasDuration() bool {
	return m != nil && m.Duration > 0
}

// IsLocal reports whether the media is a local file.
func (m *Media) IsLocal() bool {
	u, err := url.Parse(m.Location)
	return err == nil && u.Scheme == "file"
}

// SubtitleURI converts a subtitle file path into a file URI.
func SubtitleURI(path string) (string, error) {
	return fileURI(path)
}

// SubtitleLocation returns location unchanged when it is a URI, otherwise
// the file URI of the path.
func SubtitleLocation(location string) (string, error) {
	if u, err := url.Parse(location); err == nil && len(u.Scheme) > 1 {
		return location, nil
	}
	return fileURI(location)
}

func fileURI(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyLocation
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve path %q", path)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
