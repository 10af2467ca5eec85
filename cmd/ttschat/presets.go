package main

import (
	"encoding/json"
	"fmt"

	"github.com/koscakluka/ttschat/core/presets"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage conversation presets",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the presets in the preset directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		names, err := presets.List(dir)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var presetsShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print a preset with command line overrides applied",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		if len(args) == 1 {
			c.PresetPath = args[0]
		}
		preset, err := loadPreset(c)
		if err != nil {
			return err
		}

		out := json.NewEncoder(cmd.OutOrStdout())
		out.SetEscapeHTML(false)
		out.SetIndent("", "  ")
		return out.Encode(preset)
	},
}

var presetsSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of preset files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := presets.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
		return err
	},
}

var presetsImportCmd = &cobra.Command{
	Use:   "import <source-dir>",
	Short: "Copy preset files into the preset directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		overwrite, _ := cmd.Flags().GetBool("overwrite")

		result, err := presets.Import(args[0], dir, overwrite)
		for _, name := range result.Copied {
			fmt.Fprintf(cmd.OutOrStdout(), "copied %s\n", name)
		}
		for _, name := range result.Skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "skipped existing %s\n", name)
		}
		if err != nil {
			return err
		}
		if len(result.Copied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no presets copied")
		}
		return nil
	},
}

func init() {
	presetsListCmd.Flags().String("dir", "", "preset directory (default: the user's preset directory)")
	presetsImportCmd.Flags().String("dir", "", "target directory (default: the user's preset directory)")
	presetsImportCmd.Flags().Bool("overwrite", false, "replace presets that already exist")

	presetsCmd.AddCommand(presetsListCmd, presetsShowCmd, presetsSchemaCmd, presetsImportCmd)
	rootCmd.AddCommand(presetsCmd)
}
