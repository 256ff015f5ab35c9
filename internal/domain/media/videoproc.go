package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/propside/media-service/internal/config"
)

// VideoInfo is the probed description of one video stream.
type VideoInfo struct {
	Codec    string
	Width    int
	Height   int
	Duration float64
}

// CompressionPreset names an optional H.264/AAC transcode target. Ingest
// never requires one; large videos defer compression to an operator-run job.
type CompressionPreset struct {
	Name   string
	Height int
}

var compressionPresets = map[string]CompressionPreset{
	"480p":  {Name: "480p", Height: 480},
	"720p":  {Name: "720p", Height: 720},
	"1080p": {Name: "1080p", Height: 1080},
}

// PresetByName resolves a named compression preset.
func PresetByName(name string) (CompressionPreset, bool) {
	p, ok := compressionPresets[strings.ToLower(name)]
	return p, ok
}

// VideoProcessor probes, thumbnails and optionally compresses videos through
// ffprobe/ffmpeg. Videos are persisted as-is; no transcode happens on the
// ingest path.
type VideoProcessor struct {
	cfg *config.Config
	log zerolog.Logger
}

func NewVideoProcessor(cfg *config.Config, log zerolog.Logger) *VideoProcessor {
	return &VideoProcessor{
		cfg: cfg,
		log: log.With().Str("component", "video-processor").Logger(),
	}
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe extracts codec, dimensions and duration from a video file.
func (p *VideoProcessor) Probe(ctx context.Context, path string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ProcessingError{Stage: "probe", Err: fmt.Errorf("ffprobe: %w - %s", err, stderr.String())}
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, &ProcessingError{Stage: "probe", Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}

	info := &VideoInfo{}
	for _, stream := range out.Streams {
		if stream.CodecType == "video" {
			info.Codec = stream.CodecName
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}
	if duration, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.Duration = duration
	}
	if info.Codec == "" {
		return nil, &ProcessingError{Stage: "probe", Err: fmt.Errorf("no video stream in %s", filepath.Base(path))}
	}
	return info, nil
}

// Thumbnail extracts a frame at the configured offset, center-cropped to the
// thumbnail square, encoded as JPEG.
func (p *VideoProcessor) Thumbnail(ctx context.Context, path string, offset time.Duration) ([]byte, error) {
	size := p.cfg.ThumbnailSize
	filter := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", size, size, size, size)

	tmp, err := os.CreateTemp("", "vthumb-*.jpg")
	if err != nil {
		return nil, &ProcessingError{Stage: "thumbnail", Err: err}
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-ss", fmt.Sprintf("%.2f", offset.Seconds()),
		"-i", path,
		"-vframes", "1",
		"-vf", filter,
		"-q:v", "4",
		tmpName,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ProcessingError{Stage: "thumbnail", Err: fmt.Errorf("ffmpeg: %w - %s", err, stderr.String())}
	}

	data, err := os.ReadFile(tmpName)
	if err != nil {
		return nil, &ProcessingError{Stage: "thumbnail", Err: err}
	}
	return data, nil
}

// Compress transcodes src into dst with the given preset: H.264 + AAC,
// CRF 23, fast-start for progressive playback.
func (p *VideoProcessor) Compress(ctx context.Context, src, dst string, preset CompressionPreset) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", src,
		"-c:v", "libx264",
		"-crf", "23",
		"-preset", "fast",
		"-vf", fmt.Sprintf("scale=-2:%d", preset.Height),
		"-c:a", "aac",
		"-movflags", "+faststart",
		dst,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.log.Info().Str("src", filepath.Base(src)).Str("preset", preset.Name).Msg("compressing video")
	if err := cmd.Run(); err != nil {
		return &ProcessingError{Stage: "compress", Err: fmt.Errorf("ffmpeg: %w - %s", err, stderr.String())}
	}
	return nil
}

// ParseEmbedURL recognizes YouTube/Vimeo URLs and returns their canonical
// embed form. Embedded videos bypass the processing pipeline entirely.
func ParseEmbedURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	switch host {
	case "youtube.com", "m.youtube.com", "youtube-nocookie.com":
		if strings.HasPrefix(u.Path, "/embed/") {
			if id := strings.TrimPrefix(u.Path, "/embed/"); id != "" {
				return "https://www.youtube.com/embed/" + id, true
			}
		}
		if u.Path == "/watch" {
			if id := u.Query().Get("v"); id != "" {
				return "https://www.youtube.com/embed/" + id, true
			}
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return "https://www.youtube.com/embed/" + id, true
		}
	case "vimeo.com", "player.vimeo.com":
		id := strings.Trim(u.Path, "/")
		id = strings.TrimPrefix(id, "video/")
		if id != "" && !strings.Contains(id, "/") {
			return "https://player.vimeo.com/video/" + id, true
		}
	}
	return "", false
}
