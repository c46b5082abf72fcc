package media

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromURI(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{
			name: "http stream",
			raw:  "http://example.com/live/stream.m3u8",
			want: "http://example.com/live/stream.m3u8",
		},
		{
			name: "rtsp camera",
			raw:  "rtsp://10.0.0.2:554/cam",
			want: "rtsp://10.0.0.2:554/cam",
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: ErrEmptyLocation,
		},
		{
			name:    "missing scheme",
			raw:     "example.com/video.mp4",
			wantErr: ErrNoScheme,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromURI(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Location)
			assert.NotEmpty(t, m.ID)
			assert.False(t, m.IsLocal())
		})
	}
}

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.flv")

	m, err := FromPath(path)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(m.Location, "file://"))
	assert.True(t, strings.HasSuffix(m.Location, "/demo.flv"))
	assert.True(t, m.IsLocal())
	assert.False(t, m.HasDuration())

	_, err = FromPath("")
	assert.ErrorIs(t, err, ErrEmptyLocation)
}

func TestOpen(t *testing.T) {
	m, err := Open("https://example.com/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.mp4", m.Location)

	m, err = Open("videos/a.mp4")
	require.NoError(t, err)
	assert.True(t, m.IsLocal())
}

func TestMedia_WithDuration(t *testing.T) {
	m, err := FromURI("http://example.com/a.mp4")
	require.NoError(t, err)

	d := m.WithDuration(90 * time.Second)
	assert.True(t, d.HasDuration())
	assert.False(t, m.HasDuration(), "original is unchanged")
	assert.Equal(t, m.ID, d.ID)

	var nilMedia *Media
	assert.False(t, nilMedia.HasDuration())
}

func TestSubtitleURI(t *testing.T) {
	uri, err := SubtitleURI(filepath.Join(t.TempDir(), "movie.srt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file://"))
	assert.True(t, strings.HasSuffix(uri, "movie.srt"))
}

func TestSubtitleLocation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		wantURI  string
		prefix   string
		wantErr  bool
	}{
		{name: "uri kept", location: "http://example.com/a.srt", wantURI: "http://example.com/a.srt"},
		{name: "path converted", location: "subs/a.srt", prefix: "file://"},
		{name: "empty", location: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SubtitleLocation(tt.location)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyLocation)
				return
			}
			require.NoError(t, err)
			if tt.wantURI != "" {
				assert.Equal(t, tt.wantURI, got)
			}
			if tt.prefix != "" {
				assert.True(t, strings.HasPrefix(got, tt.prefix))
			}
		})
	}
}
