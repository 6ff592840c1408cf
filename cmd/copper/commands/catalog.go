package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copperhq/copper-client/pkg/copper"
)

// listRecord constrains the list-only resource kinds a catalog command can
// be built over.
type listRecord interface {
	copper.Entityer

	ID() int64
	String() string
	ToWire() (map[string]any, error)
}

// NewCatalogCommand creates the catalog command group: the account-level,
// list-only resources.
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse account catalog resources",
		Long:  "List and inspect users, activity types, contact types, customer sources, loss reasons, pipelines, pipeline stages and custom field definitions",
	}

	cmd.AddCommand(newCatalogGroup("users", "Account users", (*copper.Client).Users))
	cmd.AddCommand(newCatalogGroup("activity-types", "Loggable activity kinds", (*copper.Client).ActivityTypes))
	cmd.AddCommand(newCatalogGroup("contact-types", "Contact type labels", (*copper.Client).ContactTypes))
	cmd.AddCommand(newCatalogGroup("customer-sources", "Customer source labels", (*copper.Client).CustomerSources))
	cmd.AddCommand(newCatalogGroup("loss-reasons", "Loss reason labels", (*copper.Client).LossReasons))
	cmd.AddCommand(newCatalogGroup("pipelines", "Sales pipelines", (*copper.Client).Pipelines))
	cmd.AddCommand(newCatalogGroup("pipeline-stages", "Pipeline stages", (*copper.Client).PipelineStages))
	cmd.AddCommand(newCatalogGroup("custom-fields", "Custom field definitions", (*copper.Client).CustomFieldDefinitions))

	return cmd
}

func newCatalogGroup[T listRecord](use, short string, manager func(*copper.Client) *copper.ListOnlyManager[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List " + use,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			records, err := manager(client).All().All(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", use, err)
			}

			return outputRecords(records)
		},
	})

	cmd.AddCommand(&cobra.Command{
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

			record, err := manager(client).Get(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to fetch record %d: %w", id, err)
			}

			return outputRecord(record)
		},
	})

	return cmd
}
