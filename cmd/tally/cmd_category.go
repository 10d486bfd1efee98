package main

import (
	"fmt"
	"net/url"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newCategoryCmd creates the "tally category" subcommand tree.
func newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage app to category mappings",
	}
	cmd.AddCommand(
		newCategoryListCmd(),
		newCategorySetCmd(),
		newCategoryRmCmd(),
		newCategoryImportCmd(),
	)
	return cmd
}

func newCategoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all category mappings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			var resp struct {
				Categories []struct {
					App      string `json:"app"`
					Category string `json:"category"`
				} `json:"categories"`
			}
			if err := client.get(cmd.Context(), "/api/categories", &resp); err != nil {
				return err
			}
			for _, c := range resp.Categories {
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %s\n", c.App, c.Category)
			}
			return nil
		},
	}
}

func newCategorySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <app> <category>",
		Short: "Assign an app to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			body := map[string]string{"category": args[1]}
			path := "/api/categories/" + url.PathEscape(args[0])
			if err := client.do(cmd.Context(), "PUT", path, body, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func newCategoryRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <app>",
		Short: "Remove an app's category mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			path := "/api/categories/" + url.PathEscape(args[0])
			if err := client.do(cmd.Context(), "DELETE", path, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now uncategorized\n", args[0])
			return nil
		},
	}
}

// newCategoryImportCmd bulk-loads mappings from a YAML file of the form
//
//	editor: work
//	browser: reference
func newCategoryImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Bulk import category mappings from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0]) //nolint:gosec // user-supplied import path
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			var mappings map[string]string
			if err := yaml.Unmarshal(data, &mappings); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			if len(mappings) == 0 {
				return fmt.Errorf("%s contains no mappings", args[0])
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			apps := make([]string, 0, len(mappings))
			for app := range mappings {
				apps = append(apps, app)
			}
			sort.Strings(apps)

			for _, app := range apps {
				body := map[string]string{"category": mappings[app]}
				path := "/api/categories/" + url.PathEscape(app)
				if err := client.do(cmd.Context(), "PUT", path, body, nil); err != nil {
					return fmt.Errorf("import %s: %w", app, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d mappings\n", len(apps))
			return nil
		},
	}
}
