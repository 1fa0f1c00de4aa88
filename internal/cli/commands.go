package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/on-the-ground/ymir_dataset/dataset"
	"github.com/on-the-ground/ymir_dataset/effects/concurrency"
	"github.com/on-the-ground/ymir_dataset/effects/store"
	"github.com/on-the-ground/ymir_dataset/internal/progress"
	"github.com/on-the-ground/ymir_dataset/model"
	"github.com/spf13/cobra"
)

// run dispatches action and prints its result as JSON.
func (a *app) run(cmd *cobra.Command, action dataset.Action) error {
	ctx := cmd.Context()
	select {
	case res, ok := <-dataset.Dispatch(ctx, action):
		if !ok {
			return fmt.Errorf("%s: %w", action.Type, context.Canceled)
		}
		if res.Err != nil {
			return fmt.Errorf("%s: %w", action.Type, res.Err)
		}
		return printJSON(cmd, res.Value)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", arg, err)
	}
	return id, nil
}

func datasetQueryFlags(cmd *cobra.Command, q *model.DatasetQuery) {
	cmd.Flags().IntVar(&q.ProjectID, "project", 0, "project id")
	cmd.Flags().IntVar(&q.GroupID, "group", 0, "dataset group id")
	cmd.Flags().StringVar(&q.Name, "name", "", "dataset name filter")
	cmd.Flags().IntVar((*int)(&q.State), "state", 0, "dataset state filter")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "page offset")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "page size")
}

func (a *app) listCmd() *cobra.Command {
	var q model.DatasetQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, dataset.Action{Type: dataset.ActionGetDatasets, Payload: q})
		},
	}
	datasetQueryFlags(cmd, &q)
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, dataset.Action{Type: dataset.ActionGetDataset, Payload: id})
		},
	}
}

func (a *app) batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <id,id,...>",
		Short: "Show the datasets of a comma separated id list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, dataset.Action{Type: dataset.ActionBatchDatasets, Payload: args[0]})
		},
	}
}

func (a *app) assetsCmd() *cobra.Command {
	var q model.AssetQuery
	cmd := &cobra.Command{
		Use:   "assets <dataset-id>",
		Short: "List the assets of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			q.DatasetID = id
			return a.run(cmd, dataset.Action{Type: dataset.ActionGetAssetsOfDataset, Payload: q})
		},
	}
	cmd.Flags().StringVar(&q.Keyword, "keyword", "", "keyword filter")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "page offset")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "page size")
	return cmd
}

func (a *app) assetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "asset <hash>",
		Short: "Show one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, dataset.Action{Type: dataset.ActionGetAsset, Payload: args[0]})
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, dataset.Action{Type: dataset.ActionDelDataset, Payload: id})
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	var p model.CreateDatasetParams
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Import a new dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, dataset.Action{Type: dataset.ActionCreateDataset, Payload: p})
		},
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "dataset name")
	cmd.Flags().IntVar(&p.ProjectID, "project", 0, "project id")
	cmd.Flags().IntVar(&p.GroupID, "group", 0, "dataset group id")
	cmd.Flags().IntVar(&p.Type, "type", 0, "import strategy")
	cmd.Flags().StringVar(&p.URL, "url", "", "URL of the archive to import")
	cmd.Flags().StringVar(&p.Description, "description", "", "dataset description")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var p model.UpdateDatasetParams
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or describe a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p.ID = id
			return a.run(cmd, dataset.Action{Type: dataset.ActionUpdateDataset, Payload: p})
		},
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "new name")
	cmd.Flags().StringVar(&p.Description, "description", "", "new description")
	cmd.MarkFlagsOneRequired("name", "description")
	return cmd
}

func (a *app) publicCmd() *cobra.Command {
	var q model.DatasetQuery
	cmd := &cobra.Command{
		Use:   "public",
		Short: "List public datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, dataset.Action{Type: dataset.ActionGetInternalDataset, Payload: q})
		},
	}
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "page offset")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "page size")
	return cmd
}

func (a *app) hotCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "hot",
		Short: "Rank datasets by reference count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, dataset.Action{Type: dataset.ActionGetHotDatasets, Payload: limit})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "ranking size (default from config)")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	var (
		feed     string
		interval time.Duration
		q        model.DatasetQuery
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow dataset progress from the monitor feed",
		Long: `watch lists the datasets once, then applies the progress notifications
pushed on --feed and prints the reconciled list after every flush.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := dataset.GetDatasets(ctx, q); err != nil {
				return fmt.Errorf("%s: %w", dataset.ActionGetDatasets, err)
			}

			events, err := store.Source(ctx)
			if err != nil {
				return err
			}
			watchCtx, stop := context.WithCancel(ctx)
			printed := make(chan struct{})
			concurrency.Effect(watchCtx, func(ctx context.Context) {
				defer close(printed)
				printDatasets := func(ev store.TimeBoundedPayload) {
					if ev.Slice == dataset.SliceDatasets {
						_ = printJSON(cmd, ev.Value)
					}
				}
				for {
					select {
					case ev := <-events:
						printDatasets(ev)
					case <-ctx.Done():
						// print what the last flush put before stopping
						for {
							select {
							case ev := <-events:
								printDatasets(ev)
							default:
								return
							}
						}
					}
				}
			})

			err = progress.Watch(watchCtx, feed, a.authHeader(), interval)
			stop()
			<-printed
			return err
		},
	}
	cmd.Flags().StringVar(&feed, "feed", "", "websocket URL of the progress feed")
	cmd.Flags().DurationVar(&interval, "interval", 0, "flush interval (default from config)")
	cmd.Flags().IntVar(&q.ProjectID, "project", 0, "project id")
	_ = cmd.MarkFlagRequired("feed")
	return cmd
}
