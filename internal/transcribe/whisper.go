package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"transcript-service/internal/command"
)

// Whisper transcribes audio files with the whisper.cpp CLI. Input is first
// converted by ffmpeg to the 16 kHz mono PCM WAV whisper.cpp expects.
type Whisper struct {
	ffmpegPath  string
	whisperPath string
	modelPath   string

	runner    command.Runner
	lookPath  func(file string) (string, error)
	stat      func(name string) (os.FileInfo, error)
	mkdirTemp func(dir, pattern string) (string, error)
	removeAll func(path string) error
	readFile  func(name string) ([]byte, error)
}

// NewWhisper runs ffmpeg and whisper.cpp through runner; a nil runner
// executes the real binaries.
func NewWhisper(ffmpegPath, whisperPath, modelPath string, runner command.Runner) *Whisper {
	if runner == nil {
		runner = command.ExecRunner{}
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if whisperPath == "" {
		whisperPath = "whisper-cli"
	}
	return &Whisper{
		ffmpegPath:  ffmpegPath,
		whisperPath: whisperPath,
		modelPath:   modelPath,
		runner:      runner,
		lookPath:    exec.LookPath,
		stat:        os.Stat,
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		readFile:    os.ReadFile,
	}
}

// Check reports missing binaries or model. It does not run anything.
func (w *Whisper) Check() error {
	var errs []error
	for _, bin := range []string{w.ffmpegPath, w.whisperPath} {
		if _, err := w.lookPath(bin); err != nil {
			errs = append(errs, fmt.Errorf("%s not found: %w", bin, err))
		}
	}
	if strings.TrimSpace(w.modelPath) == "" {
		errs = append(errs, errors.New("whisper model path is not configured"))
	} else if _, err := w.stat(w.modelPath); err != nil {
		errs = append(errs, fmt.Errorf("whisper model: %w", err))
	}
	return errors.Join(errs...)
}

// Transcribe returns the transcript segments of audioPath in order.
func (w *Whisper) Transcribe(ctx context.Context, audioPath, language string) ([]string, error) {
	if _, err := w.stat(audioPath); err != nil {
		return nil, fmt.Errorf("cannot access audio file: %w", err)
	}
	if strings.TrimSpace(w.modelPath) == "" {
		return nil, errors.New("whisper model path is not configured")
	}

	tempDir, err := w.mkdirTemp("", "transcript-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = w.removeAll(tempDir) }()

	wavPath := filepath.Join(tempDir, "audio-16k-mono.wav")
	res, err := w.runner.Run(ctx, w.ffmpegPath, buildFFmpegArgs(audioPath, wavPath)...)
	if err != nil {
		return nil, command.Failure(w.ffmpegPath, res, err)
	}

	outBase := filepath.Join(tempDir, "transcript")
	res, err = w.runner.Run(ctx, w.whisperPath, buildWhisperArgs(w.modelPath, wavPath, outBase, language)...)
	if err != nil {
		return nil, command.Failure(w.whisperPath, res, err)
	}

	content, err := w.readFile(outBase + ".txt")
	if err != nil {
		return nil, fmt.Errorf("%s finished but transcript is missing: %w", w.whisperPath, err)
	}
	return splitSegments(string(content)), nil
}

// splitSegments turns whisper.cpp txt output (one segment per line) into
// segments, dropping blank lines.
func splitSegments(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func normalizeLanguage(raw string) string {
	lang := strings.ToLower(strings.TrimSpace(raw))
	if lang == "" {
		return "auto"
	}
	return lang
}

func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

func buildWhisperArgs(modelPath, audioPath, outBase, language string) []string {
	return []string{
		"-m", modelPath,
		"-f", audioPath,
		"-l", normalizeLanguage(language),
		"-of", outBase,
		"-otxt",
		"-np",
	}
}
