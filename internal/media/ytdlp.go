package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"transcript-service/internal/command"
)

// Audio is a local audio file produced for a job.
// Title is the media title when the source reports one.
type Audio struct {
	Path  string
	Title string
}

// YTDLPSource downloads the audio track of a URL with yt-dlp and converts it
// to mp3 through yt-dlp's ffmpeg post-processor.
type YTDLPSource struct {
	bin    string
	dir    string
	runner command.Runner
	stat   func(name string) (os.FileInfo, error)
}

// NewYTDLPSource runs yt-dlp through runner; a nil runner executes the real binary.
func NewYTDLPSource(bin, dir string, runner command.Runner) *YTDLPSource {
	if bin == "" {
		bin = "yt-dlp"
	}
	if runner == nil {
		runner = command.ExecRunner{}
	}
	return &YTDLPSource{bin: bin, dir: dir, runner: runner, stat: os.Stat}
}

// Fetch writes <dir>/<jobID>.mp3 and returns its path.
func (s *YTDLPSource) Fetch(ctx context.Context, jobID uuid.UUID, url string) (Audio, error) {
	if strings.TrimSpace(url) == "" {
		return Audio{}, fmt.Errorf("url is required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Audio{}, fmt.Errorf("create download dir: %w", err)
	}

	outTemplate := filepath.Join(s.dir, jobID.String()+".%(ext)s")
	args := buildYTDLPArgs(url, outTemplate)

	res, err := s.runner.Run(ctx, s.bin, args...)
	if err != nil {
		return Audio{}, command.Failure(s.bin, res, err)
	}

	path := filepath.Join(s.dir, jobID.String()+".mp3")
	if _, err := s.stat(path); err != nil {
		return Audio{}, fmt.Errorf("%s finished but audio file is missing: %s", s.bin, path)
	}

	return Audio{Path: path, Title: firstLine(res.Stdout)}, nil
}

func buildYTDLPArgs(url, outTemplate string) []string {
	return []string{
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--no-playlist",
		"--no-simulate",
		"--print", "title",
		"--output", outTemplate,
		url,
	}
}

func firstLine(s string) string {
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}
