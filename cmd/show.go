package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"homestead/config/database"
	"homestead/internal/record/model"
	"homestead/internal/record/normalize"
	"homestead/internal/record/repository"
	"homestead/internal/record/service"
	"homestead/internal/story/filestore"
	storyService "homestead/internal/story/service"
	"homestead/pkg/apperr"
)

var (
	showViewer string
	showOwner  string
)

var showCmd = &cobra.Command{
	Use:   "show <collection> <slug>",
	Short: "Print one normalized record",
	Long:  "Looks up a record the way the API does and prints its normalized JSON. Collections: fieldnotes, recipes, brews, jobs, stories.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pool *database.Pool
		if args[0] != storyService.Stories.Name {
			if _, ok := findCollection(args[0]); !ok {
				return fmt.Errorf("unknown collection %q", args[0])
			}
			var err error
			pool, err = database.Connect(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
		}
		return show(cmd.Context(), cmd.OutOrStdout(), pool, cfg.NotesDir, args[0], args[1])
	},
}

func init() {
	showCmd.Flags().StringVar(&showViewer, "viewer", "", "Viewer email (default: anonymous)")
	showCmd.Flags().StringVar(&showOwner, "owner", "", "Owner email for stories (default: viewer)")
}

func show(ctx context.Context, out io.Writer, pool *database.Pool, notesDir, collection, slug string) error {
	var rec normalize.Record
	var err error

	if collection == storyService.Stories.Name {
		rec, err = storyService.NewStoryService(filestore.New(notesDir)).Get(showOwner, slug, showViewer)
	} else {
		c, ok := findCollection(collection)
		if !ok {
			return fmt.Errorf("unknown collection %q", collection)
		}
		svc := service.NewRecordService(repository.NewRecordRepository(pool, c.Table), c)
		rec, err = svc.Get(ctx, slug, showViewer)
	}
	if err != nil {
		return fmt.Errorf("%s (%s): %w", apperr.Message(err), apperr.KindOf(err), err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func findCollection(name string) (model.Collection, bool) {
	for _, c := range model.Collections() {
		if c.Name == name {
			return c, true
		}
	}
	return model.Collection{}, false
}
