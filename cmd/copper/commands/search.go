package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copperhq/copper-client/pkg/copper"
)

// searchRecord constrains the searchable resource kinds a command group can
// be built over.
type searchRecord interface {
	copper.Entityer

	ID() int64
	String() string
	ToWire() (map[string]any, error)
	SetValues(values copper.Values) error
	Create(ctx context.Context) error
	Update(ctx context.Context) error
	Delete(ctx context.Context) error
}

// searchGroup describes one searchable resource's command group.
type searchGroup[T searchRecord] struct {
	use     string
	aliases []string
	short   string

	manager   func(*copper.Client) *copper.Manager[T]
	construct func(*copper.Client, copper.Values) (T, error)
}

// build assembles the cobra command group with list, get, create, update and
// delete subcommands.
func (g searchGroup[T]) build() *cobra.Command {
	cmd := &cobra.Command{
		Use:     g.use,
		Aliases: g.aliases,
		Short:   g.short,
		Long:    "List, inspect, create, update and delete " + g.use,
	}

	cmd.AddCommand(g.listCommand())
	cmd.AddCommand(g.getCommand())
	cmd.AddCommand(g.createCommand())
	cmd.AddCommand(g.updateCommand())
	cmd.AddCommand(g.deleteCommand())

	return cmd
}

func (g searchGroup[T]) listCommand() *cobra.Command {
	var (
		filters []string
		orderBy string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search " + g.use,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			params, err := parseFilters(filters)
			if err != nil {
				return err
			}

			results := g.manager(client).Filter(params)

			if orderBy != "" {
				results, err = results.OrderBy(orderBy)
				if err != nil {
					return err
				}
			}

			ctx := context.Background()

			var records []T

			if limit > 0 {
				records, err = results.Slice(ctx, 0, limit)
			} else {
				records, err = results.All(ctx)
			}

			if err != nil {
				return fmt.Errorf("failed to list %s: %w", g.use, err)
			}

			return outputRecords(records)
		},
	}

	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "search filter as key=value (repeatable)")
	cmd.Flags().StringVar(&orderBy, "order", "", "sort field, prefix with '-' for descending")
	cmd.Flags().IntVar(&limit, "limit", 0, "fetch at most this many records")

	return cmd
}

func (g searchGroup[T]) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}

			record, err := g.manager(client).Get(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to fetch record %d: %w", id, err)
			}

			return outputRecord(record)
		},
	}
}

func (g searchGroup[T]) createCommand() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			values, err := parseFieldValues(fields)
			if err != nil {
				return err
			}

			record, err := g.construct(client, values)
			if err != nil {
				return err
			}

			err = record.Create(context.Background())
			if err != nil {
				return fmt.Errorf("failed to create record: %w", err)
			}

			return outputRecord(record)
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "field value as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}

func (g searchGroup[T]) updateCommand() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}

			values, err := parseFieldValues(fields)
			if err != nil {
				return err
			}

			ctx := context.Background()

			record, err := g.manager(client).Get(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch record %d: %w", id, err)
			}

			err = record.SetValues(values)
			if err != nil {
				return err
			}

			err = record.Update(ctx)
			if err != nil {
				return fmt.Errorf("failed to update record %d: %w", id, err)
			}

			return outputRecord(record)
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "field value as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}

func (g searchGroup[T]) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()

			record, err := g.manager(client).Get(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch record %d: %w", id, err)
			}

			err = record.Delete(ctx)
			if err != nil {
				return fmt.Errorf("failed to delete record %d: %w", id, err)
			}

			fmt.Printf("Deleted %s %d\n", g.use, id)

			return nil
		},
	}
}
