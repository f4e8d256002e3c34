package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var errNoEpisodes = errors.New("feed has no playable episodes")

var exportCmd = &cobra.Command{
	Use:     "export FEED_URL FILE",
	Short:   "Save a feed's episodes as a YAML playlist",
	Example: "  podcast-player export https://example.com/feed.xml show.yaml\n  podcast-player --playlist show.yaml",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closer, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()

		playlist, err := newFetcher(cfg, logger).Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(playlist.Episodes) == 0 {
			return errors.Wrap(errNoEpisodes, args[0])
		}

		if err := playlist.Save(args[1]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d episodes from %q to %s\n", len(playlist.Episodes), playlist.Title, args[1])
		return nil
	},
}
