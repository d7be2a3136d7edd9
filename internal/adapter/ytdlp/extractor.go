// Package ytdlp acquires the audio track for a video by shelling out to the
// yt-dlp binary.
package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Media is the local artifact produced by an extraction.
type Media struct {
	Path    string
	Title   string
	VideoID string
}

type Extractor struct {
	binPath string
	outDir  string
}

func NewExtractor(binPath, outDir string) *Extractor {
	return &Extractor{binPath: binPath, outDir: outDir}
}

// Extract downloads the best audio stream for url as mp3 into the output
// directory. Failures carry yt-dlp's stderr for diagnosis (unsupported URL,
// network error, geo-block).
func (e *Extractor) Extract(ctx context.Context, url string) (*Media, error) {
	if err := os.MkdirAll(e.outDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating audio dir: %w", err)
	}

	// --print emits id and title on stdout; --no-simulate keeps the
	// download running despite --print.
	cmd := exec.CommandContext(ctx, e.binPath,
		"-x", "--audio-format", "mp3",
		"--no-playlist", "--no-simulate",
		"--print", "%(id)s",
		"--print", "%(title)s",
		"-o", filepath.Join(e.outDir, "%(id)s.%(ext)s"),
		url,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("yt-dlp returned no media info for %s", url)
	}

	id := strings.TrimSpace(lines[0])
	title := strings.TrimSpace(lines[1])

	return &Media{
		Path:    filepath.Join(e.outDir, id+".mp3"),
		Title:   title,
		VideoID: id,
	}, nil
}
