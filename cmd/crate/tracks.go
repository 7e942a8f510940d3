package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/justestif/go-crate-keeper/internal/crate"
	"github.com/justestif/go-crate-keeper/internal/track"
)

const shortIDLen = 8

var errAmbiguousID = errors.New("id prefix matches more than one track")

func (c *cli) listCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List tracks, optionally filtered by a search query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			tracks := a.store.Search(query)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tracks)
			}
			return printTracks(cmd.OutOrStdout(), tracks)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tracks as JSON")
	return cmd
}

func printTracks(w io.Writer, tracks []track.Track) error {
	if len(tracks) == 0 {
		_, err := fmt.Fprintln(w, "No tracks found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tARTIST\tSTATUS\tFORMAT\tBPM\tKEY")
	for _, t := range tracks {
		bpm := ""
		if t.BPM > 0 {
			bpm = strconv.FormatFloat(t.BPM, 'f', -1, 64)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), t.Title, t.Artist, t.Status, t.Format, bpm, t.Key)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// resolveID accepts a full id or a unique prefix of one.
func resolveID(store *crate.Store, ref string) (string, error) {
	if _, err := store.Get(ref); err == nil {
		return ref, nil
	}

	var match string
	for _, t := range store.Tracks() {
		if !strings.HasPrefix(t.ID, ref) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %q", errAmbiguousID, ref)
		}
		match = t.ID
	}
	if ref == "" || match == "" {
		return "", fmt.Errorf("%q: %w", ref, crate.ErrNotFound)
	}
	return match, nil
}

func formatList() string {
	names := make([]string, len(track.Formats))
	for i, f := range track.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func (c *cli) addCmd() *cobra.Command {
	var (
		t      track.Track
		status string
		format string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a track to the crate",
		Example: `  crate add --title "Strings of Life" --artist "Rhythim Is Rhythim" \
    --status owned --format vinyl --bpm 124 --key 8A`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}

			t.Status = track.Status(status)
			t.Format = track.Format(format)
			added, err := a.store.Add(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%s)\n", added.Title, shortID(added.ID))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&t.Title, "title", "", "track title (required)")
	f.StringVar(&t.Artist, "artist", "", "artist name")
	f.StringVar(&status, "status", string(track.StatusWanted), "owned or wanted")
	f.StringVar(&format, "format", "", "one of "+formatList())
	f.StringVar(&t.Album, "album", "", "album or release")
	f.IntVar(&t.ReleaseYear, "year", 0, "release year")
	f.Float64Var(&t.BPM, "bpm", 0, "tempo in beats per minute")
	f.StringVar(&t.Key, "key", "", "Camelot key, e.g. 8A")
	f.StringVar(&t.Comments, "comments", "", "free-form notes")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <field> <value>",
		Short: "Set one field of a track",
		Long: `Set one field of a track. Fields: title, artist, owned_status (status),
format, album, release_year (year), bpm, camelot_key (key), comments.
An empty value clears optional fields.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}

			id, err := resolveID(a.store, args[0])
			if err != nil {
				return err
			}
			updated, err := a.store.Update(cmd.Context(), id, args[1], editValue(args[1], args[2]))
			if err != nil {
				return err
			}
			return printTracks(cmd.OutOrStdout(), []track.Track{updated})
		},
	}
}

// editValue converts a command-line value for Apply. The legacy "owned"
// field takes a boolean; everything else is passed as text.
func editValue(field, raw string) any {
	if strings.EqualFold(strings.TrimSpace(field), "owned") {
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a track",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}

			id, err := resolveID(a.store, args[0])
			if err != nil {
				return err
			}
			return a.store.Remove(cmd.Context(), id)
		},
	}
}

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push every local track to the remote database",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			return a.store.SyncAll(cmd.Context())
		},
	}
}
