package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copperhq/copper-client/pkg/copper"
)

// NewPeopleCommand creates the people command group.
func NewPeopleCommand() *cobra.Command {
	group := searchGroup[*copper.Person]{
		use:     "people",
		aliases: []string{"person"},
		short:   "Manage people",
		manager: func(c *copper.Client) *copper.Manager[*copper.Person] {
			return c.People().Manager
		},
		construct: copper.NewPerson,
	}

	cmd := group.build()
	cmd.AddCommand(newPeopleFindByEmailCommand())

	return cmd
}

func newPeopleFindByEmailCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find-by-email ADDRESS",
		Short: "Find the person with the given primary email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}

			person, err := client.People().FindByEmail(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to find person by email: %w", err)
			}

			return outputRecord(person)
		},
	}
}

// NewCompaniesCommand creates the companies command group.
func NewCompaniesCommand() *cobra.Command {
	return searchGroup[*copper.Company]{
		use:       "companies",
		aliases:   []string{"company"},
		short:     "Manage companies",
		manager:   (*copper.Client).Companies,
		construct: copper.NewCompany,
	}.build()
}

// NewLeadsCommand creates the leads command group.
func NewLeadsCommand() *cobra.Command {
	return searchGroup[*copper.Lead]{
		use:       "leads",
		aliases:   []string{"lead"},
		short:     "Manage leads",
		manager:   (*copper.Client).Leads,
		construct: copper.NewLead,
	}.build()
}

// NewOpportunitiesCommand creates the opportunities command group.
func NewOpportunitiesCommand() *cobra.Command {
	return searchGroup[*copper.Opportunity]{
		use:       "opportunities",
		aliases:   []string{"opportunity", "opps"},
		short:     "Manage opportunities",
		manager:   (*copper.Client).Opportunities,
		construct: copper.NewOpportunity,
	}.build()
}

// NewTasksCommand creates the tasks command group.
func NewTasksCommand() *cobra.Command {
	return searchGroup[*copper.Task]{
		use:       "tasks",
		aliases:   []string{"task"},
		short:     "Manage tasks",
		manager:   (*copper.Client).Tasks,
		construct: copper.NewTask,
	}.build()
}

// NewActivitiesCommand creates the activities command group.
func NewActivitiesCommand() *cobra.Command {
	return searchGroup[*copper.Activity]{
		use:       "activities",
		aliases:   []string{"activity"},
		short:     "Manage activities",
		manager:   (*copper.Client).Activities,
		construct: copper.NewActivity,
	}.build()
}
