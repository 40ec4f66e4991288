// Package commands implements the jobcal command line interface
package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ceronops/jobcal/internal/config"
	"github.com/ceronops/jobcal/internal/constants"
	"github.com/ceronops/jobcal/pkg/api/v1/client"
	"github.com/ceronops/jobcal/pkg/api/v1/routes"
)

// flag names shared by several commands
const (
	flagAPIURL = "api-url"
	flagID     = "id"
	flagIDs    = "ids"
	flagLimit  = "limit"
	flagOffset = "offset"
	flagUnsync = "unsync"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// apiURL holds the target API base URL. Flag parsing sets this.
	apiURL string
)

// initClient initializes the API client
func initClient() error {
	opts := client.DefaultOptions()
	opts.BaseURL = apiURL

	var err error
	apiClient, err = client.NewClient(opts)
	return err
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:          "jobcal",
	Short:        "jobcal CLI - manage recurring jobs and their calendar sync",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Flag > environment > default
		if f := cmd.Flag(flagAPIURL); f == nil || !f.Changed {
			if env := config.GetEnv(constants.EnvAPIURL, ""); env != "" {
				apiURL = env
			}
		}
		if apiURL == "" {
			return fmt.Errorf("api url cannot be empty")
		}
		return initClient()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&apiURL, flagAPIURL, "a", routes.DefaultBaseURL,
		"Base URL of the jobcal API (env: "+constants.EnvAPIURL+")")

	RootCmd.AddCommand(
		newHealthCmd(),
		newTemplatesCmd(),
		newInstancesCmd(),
		newSyncCmd(),
		newCalendarCmd(),
	)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the API and calendar configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			health, err := apiClient.HealthCheck(cmd.Context())
			if err != nil {
				return fmt.Errorf("error checking health: %w", err)
			}
			return printJSON(cmd, health)
		},
	}
}

// printJSON pretty prints v to the command output
func printJSON(cmd *cobra.Command, v interface{}) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(prettyJSON))
	return err
}

// splitIDs splits a comma separated id list, dropping blanks
func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func mustMarkRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Errorf("failed to mark %s flag as required for %s command: %w", name, cmd.Name(), err))
		}
	}
}
