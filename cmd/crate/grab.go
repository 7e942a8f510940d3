package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justestif/go-crate-keeper/internal/crate"
	"github.com/justestif/go-crate-keeper/internal/grabber"
	"github.com/justestif/go-crate-keeper/internal/track"
)

// grabFunc finds candidates and reports what to remember in history.
type grabFunc func(ctx context.Context, a *app, args []string) (grabber.Mode, string, []grabber.Candidate, error)

func (c *cli) grabCmd() *cobra.Command {
	var add bool

	cmd := &cobra.Command{
		Use:   "grab",
		Short: "Find tracks in a tracklist, link, upload, audio files or a CSV export",
		Long: `Find candidate tracks and show which are already in the crate.
With --add, every candidate not yet in the crate is added as a wanted track.`,
	}
	cmd.PersistentFlags().BoolVar(&add, "add", false, "add new candidates to the crate")

	sub := func(use, short string, args cobra.PositionalArgs, fn grabFunc) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.grab(cmd, args, add, fn)
			},
		}
	}

	var uploadMode string
	upload := sub("upload <path>", "Send an image or file to the tracklist webhook", cobra.ExactArgs(1),
		func(ctx context.Context, a *app, args []string) (grabber.Mode, string, []grabber.Candidate, error) {
			return grabUpload(ctx, a, uploadMode, args[0])
		})
	upload.Flags().StringVar(&uploadMode, "mode", string(grabber.ModeFile), "image or file")

	cmd.AddCommand(
		sub("text <tracklist...>", "Send pasted tracklist text to the webhook", cobra.MinimumNArgs(1), grabText),
		sub("url <url>", "Resolve a Spotify link or send a URL to the webhook", cobra.ExactArgs(1), grabURL),
		upload,
		sub("audio <path>", "Read tags from an audio file or every audio file under a directory", cobra.ExactArgs(1), grabAudio),
		sub("csv <path>", "Read tracks from a CSV export", cobra.ExactArgs(1), grabCSV),
	)
	return cmd
}

func (c *cli) grab(cmd *cobra.Command, args []string, add bool, fn grabFunc) error {
	a, err := c.open(cmd)
	if err != nil {
		return err
	}

	mode, value, cands, err := fn(cmd.Context(), a, args)
	if err != nil {
		return err
	}
	if err := a.history.Add(mode, value); err != nil {
		a.logger.Warn("saving grab history", zap.Error(err))
	}

	annotated := grabber.Annotate(cands, a.store.Tracks())
	if err := printCandidates(cmd.OutOrStdout(), annotated); err != nil {
		return err
	}
	if !add {
		return nil
	}

	var added int
	for _, cand := range annotated {
		if cand.InCrate {
			continue
		}
		_, err := a.store.Add(cmd.Context(), cand.Track(time.Now()))
		switch {
		case err == nil:
			added++
		case errors.Is(err, crate.ErrDuplicate), errors.Is(err, track.ErrEmptyTitle):
		default:
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d of %d tracks\n", added, len(annotated))
	return nil
}

func grabText(ctx context.Context, a *app, args []string) (grabber.Mode, string, []grabber.Candidate, error) {
	if a.webhook == nil {
		return "", "", nil, grabber.ErrNoWebhook
	}
	text := strings.Join(args, " ")
	cands, err := a.webhook.Extract(ctx, grabber.Request{Mode: grabber.ModeText, Value: text})
	return grabber.ModeText, text, cands, err
}

func grabURL(ctx context.Context, a *app, args []string) (grabber.Mode, string, []grabber.Candidate, error) {
	link := strings.TrimSpace(args[0])
	if grabber.IsLink(link) && a.spotify != nil {
		cands, err := a.spotify.Resolve(ctx, link)
		return grabber.ModeURL, link, cands, err
	}
	if a.webhook == nil {
		return "", "", nil, grabber.ErrNoWebhook
	}
	cands, err := a.webhook.Extract(ctx, grabber.Request{Mode: grabber.ModeURL, Value: link})
	return grabber.ModeURL, link, cands, err
}

func grabUpload(ctx context.Context, a *app, modeName, path string) (grabber.Mode, string, []grabber.Candidate, error) {
	mode, err := grabber.ParseMode(modeName)
	if err != nil {
		return "", "", nil, err
	}
	if mode != grabber.ModeImage && mode != grabber.ModeFile {
		return "", "", nil, fmt.Errorf("upload mode must be %s or %s", grabber.ModeImage, grabber.ModeFile)
	}
	if a.webhook == nil {
		return "", "", nil, grabber.ErrNoWebhook
	}

	f, err := os.Open(path)
	if err != nil {
		return "", "", nil, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	cands, err := a.webhook.Extract(ctx, grabber.Request{Mode: mode, Value: name, Body: f, Filename: name})
	return mode, name, cands, err
}

func grabAudio(ctx context.Context, a *app, args []string) (grabber.Mode, string, []grabber.Candidate, error) {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return "", "", nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if !info.IsDir() {
		cand, err := grabber.FromAudioFile(path)
		if err != nil {
			return "", "", nil, err
		}
		return grabber.ModeFile, path, []grabber.Candidate{cand}, nil
	}

	cands, err := grabber.ScanDir(ctx, path, grabber.DefaultScanConcurrency)
	if err != nil {
		// Unreadable files are reported but do not hide the readable ones.
		if len(cands) == 0 {
			return "", "", nil, err
		}
		a.logger.Warn("some audio files could not be read", zap.Error(err))
	}
	return grabber.ModeFile, path, cands, nil
}

func grabCSV(ctx context.Context, a *app, args []string) (grabber.Mode, string, []grabber.Candidate, error) {
	f, err := os.Open(args[0])
	if err != nil {
		return "", "", nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	cands, err := grabber.ParseCSV(f)
	return grabber.ModeFile, args[0], cands, err
}

func printCandidates(w io.Writer, cands []grabber.Annotated) error {
	if len(cands) == 0 {
		_, err := fmt.Fprintln(w, "No tracks found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tTITLE\tARTIST\tALBUM\tSOURCE")
	for _, c := range cands {
		mark := "+"
		switch {
		case c.InCrate:
			mark = "="
		case c.SimilarID != "":
			mark = "~"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, c.Title, c.Artist, c.Album, c.Source)
	}
	return tw.Flush()
}

func (c *cli) historyCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear recent grabs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			if reset {
				return a.history.Clear()
			}

			entries, err := a.history.Entries()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No grabs yet")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.Mode, e.Value)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&reset, "clear", false, "forget every grab")
	return cmd
}
