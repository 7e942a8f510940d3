package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justestif/go-crate-keeper/internal/lastfm"
	"github.com/justestif/go-crate-keeper/internal/track"
)

var errNoLastFM = errors.New("last.fm not configured: set LASTFM_API_KEY")

func (c *cli) enrichCmd() *cobra.Command {
	var maxTags int

	cmd := &cobra.Command{
		Use:   "enrich [id]",
		Short: "Fill missing albums and add genre tags from Last.fm",
		Long: `Look tracks up on Last.fm by artist and title. A missing album is filled
in and the top tags are appended to the comments once. Without an id every
track with an artist is enriched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			if a.lastfm == nil {
				return errNoLastFM
			}

			tracks := a.store.Tracks()
			if len(args) == 1 {
				id, err := resolveID(a.store, args[0])
				if err != nil {
					return err
				}
				t, err := a.store.Get(id)
				if err != nil {
					return err
				}
				tracks = []track.Track{t}
			}

			var updated, missed int
			for _, t := range tracks {
				if t.Artist == "" {
					continue
				}
				info, err := a.lastfm.TrackInfo(cmd.Context(), t.Artist, t.Title)
				if errors.Is(err, lastfm.ErrNotFound) {
					missed++
					continue
				}
				if err != nil {
					return fmt.Errorf("looking up %q: %w", t.Title, err)
				}

				edits := lastfm.Edits(t, info, maxTags)
				for _, e := range edits {
					if _, err := a.store.Update(cmd.Context(), t.ID, e.Field, e.Value); err != nil {
						return err
					}
				}
				if len(edits) > 0 {
					updated++
				}
				a.logger.Debug("enriched track", zap.String("id", t.ID), zap.Int("edits", len(edits)))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Enriched %d tracks (%d not on Last.fm)\n", updated, missed)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxTags, "tags", lastfm.DefaultMaxTags, "number of tags to add")
	return cmd
}
