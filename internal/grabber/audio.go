package grabber

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-crate-keeper/internal/track"
)

// DefaultScanConcurrency is the number of files read at once by ScanDir.
const DefaultScanConcurrency = 5

var formatByExt = map[string]track.Format{
	".mp3":  track.FormatMP3,
	".flac": track.FormatFLAC,
	".wav":  track.FormatWAV,
	".aif":  track.FormatAIFF,
	".aiff": track.FormatAIFF,
	".m4a":  track.FormatOther,
	".ogg":  track.FormatOther,
}

// IsAudioFile reports whether path has a recognized audio extension.
func IsAudioFile(path string) bool {
	_, ok := formatByExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FromAudioFile reads a candidate from the tags of an audio file.
// Files without readable tags still produce a candidate titled after the
// file name.
func FromAudioFile(path string) (Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("opening audio file: %w", err)
	}
	defer f.Close()

	c := Candidate{
		Format: formatByExt[strings.ToLower(filepath.Ext(path))],
		Source: string(ModeFile),
	}

	m, err := tag.ReadFrom(f)
	switch {
	case err == nil:
		c.Title = strings.TrimSpace(m.Title())
		c.Artist = strings.TrimSpace(m.Artist())
		c.Album = strings.TrimSpace(m.Album())
		c.Year = m.Year()
		if c.Format == "" || c.Format == track.FormatOther {
			c.Format = track.NormalizeFormat(string(m.FileType()))
		}
	case errors.Is(err, tag.ErrNoTagsFound):
	default:
		return Candidate{}, fmt.Errorf("reading tags of %s: %w", filepath.Base(path), err)
	}

	if c.Title == "" {
		c.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if c.Format == "" {
		c.Format = track.FormatOther
	}
	return c, nil
}

// ScanDir reads every audio file below dir using a bounded worker pool.
// Results are ordered by path. Files that cannot be read are skipped and
// reported together in the returned error.
func ScanDir(ctx context.Context, dir string, concurrency int) ([]Candidate, error) {
	if concurrency <= 0 {
		concurrency = DefaultScanConcurrency
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsAudioFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(paths)

	results := make([]Candidate, len(paths))
	failures := make([]error, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := FromAudioFile(path)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(paths))
	for i := range paths {
		if failures[i] == nil {
			candidates = append(candidates, results[i])
		}
	}
	return candidates, errors.Join(failures...)
}
