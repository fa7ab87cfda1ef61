package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"transcript-service/internal/command"
)

type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) (command.Result, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	return f.run(ctx, name, args...)
}

func argValue(args []string, key string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == key {
			return args[i+1]
		}
	}
	return ""
}

func TestYTDLPSource_FetchSuccess(t *testing.T) {
	dir := t.TempDir()
	id := uuid.New()

	var gotArgs []string
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (command.Result, error) {
		if name != "yt-dlp-custom" {
			t.Fatalf("command = %q", name)
		}
		gotArgs = args
		out := strings.Replace(argValue(args, "--output"), "%(ext)s", "mp3", 1)
		if err := os.WriteFile(out, []byte("mp3"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		return command.Result{Stdout: "\nMe at the zoo\n"}, nil
	}}

	src := NewYTDLPSource("yt-dlp-custom", dir, runner)
	audio, err := src.Fetch(context.Background(), id, "https://youtu.be/x")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if audio.Path != filepath.Join(dir, id.String()+".mp3") {
		t.Fatalf("path = %q", audio.Path)
	}
	if audio.Title != "Me at the zoo" {
		t.Fatalf("title = %q", audio.Title)
	}
	if gotArgs[len(gotArgs)-1] != "https://youtu.be/x" || argValue(gotArgs, "--audio-format") != "mp3" {
		t.Fatalf("args = %v", gotArgs)
	}
}

func TestNewYTDLPSource_Defaults(t *testing.T) {
	s := NewYTDLPSource("", t.TempDir(), nil)
	if s.bin != "yt-dlp" {
		t.Fatalf("bin = %q", s.bin)
	}
	if _, ok := s.runner.(command.ExecRunner); !ok {
		t.Fatalf("runner = %T, want command.ExecRunner", s.runner)
	}
}

func TestYTDLPSource_FetchReportsToolError(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (command.Result, error) {
		return command.Result{Stderr: "ERROR: [youtube] x: Video unavailable", ExitCode: 1}, errors.New("exit status 1")
	}}

	_, err := NewYTDLPSource("yt-dlp", t.TempDir(), runner).Fetch(context.Background(), uuid.New(), "https://youtu.be/x")
	if err == nil || !strings.Contains(err.Error(), "Video unavailable") {
		t.Fatalf("Fetch() error = %v", err)
	}
}

func TestYTDLPSource_FetchMissingOutput(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (command.Result, error) {
		return command.Result{}, nil
	}}

	_, err := NewYTDLPSource("yt-dlp", t.TempDir(), runner).Fetch(context.Background(), uuid.New(), "https://youtu.be/x")
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("Fetch() error = %v", err)
	}
}

func TestUploadStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewUploadStore(dir, 0)

	path, err := store.Save("../../etc/Talk.MP3", strings.NewReader("audio-bytes"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Dir(path) != dir || filepath.Ext(path) != ".mp3" {
		t.Fatalf("path = %q", path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "audio-bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestUploadStore_SaveTooLarge(t *testing.T) {
	dir := t.TempDir()
	store := NewUploadStore(dir, 4)

	_, err := store.Save("a.wav", strings.NewReader("12345"))
	if !errors.Is(err, ErrUploadTooLarge) {
		t.Fatalf("Save() error = %v, want ErrUploadTooLarge", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("partial upload left behind: %d files", len(entries))
	}
}

func TestUploadStore_Remove(t *testing.T) {
	store := NewUploadStore(t.TempDir(), 0)
	path, err := store.Save("a.wav", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still present: %v", err)
	}
	if err := store.Remove(path); err != nil {
		t.Fatalf("second Remove() error = %v", err)
	}
}

func TestDisplayNameAndExt(t *testing.T) {
	cases := []struct {
		in, name, ext string
	}{
		{"meeting.m4a", "meeting.m4a", ".m4a"},
		{`C:\Users\me\lecture.WAV`, "lecture.WAV", ".wav"},
		{"noext", "noext", ""},
		{"weird.$$$", "weird.$$$", ""},
		{"", "upload", ""},
	}
	for _, tc := range cases {
		if got := DisplayName(tc.in); got != tc.name {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.in, got, tc.name)
		}
		if got := uploadExt(tc.in); got != tc.ext {
			t.Errorf("uploadExt(%q) = %q, want %q", tc.in, got, tc.ext)
		}
	}
}
