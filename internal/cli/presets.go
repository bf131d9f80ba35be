package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loglens/loglens/internal/domain"
)

// presetsCmd lists the saved filter presets
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List saved filter presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		store, err := newPresetStore(cfg)
		if err != nil {
			return err
		}

		presets := store.LoadAll()
		if len(presets) == 0 {
			fmt.Println("No presets saved.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tENABLED\tCONDITION")
		fmt.Fprintln(w, "--\t----\t-------\t---------")
		for _, p := range presets {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", p.ID, p.Name, p.Enabled, describeCondition(p.Condition))
		}
		return w.Flush()
	},
}

// presetsDeleteCmd removes a preset by id
var presetsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		store, err := newPresetStore(cfg)
		if err != nil {
			return err
		}

		if err := store.DeleteByID(args[0]); err != nil {
			return fmt.Errorf("deleting preset: %w", err)
		}

		fmt.Printf("Deleted preset %s\n", args[0])
		return nil
	},
}

func init() {
	presetsCmd.AddCommand(presetsDeleteCmd)
}

// describeCondition renders a condition in short form for the table
func describeCondition(cond domain.FilterCondition) string {
	if cond.IsEmpty() {
		return "(matches everything)"
	}
	var parts []string
	if len(cond.Levels) > 0 {
		letters := make([]string, len(cond.Levels))
		for i, lvl := range cond.Levels {
			letters[i] = lvl.Letter()
		}
		parts = append(parts, "levels:"+strings.Join(letters, ""))
	}
	if cond.TagInclude != "" {
		parts = append(parts, "tag:"+cond.TagInclude)
	}
	if cond.TagExclude != "" {
		parts = append(parts, "-tag:"+cond.TagExclude)
	}
	if len(cond.PIDs) > 0 {
		parts = append(parts, fmt.Sprintf("pid:%v", cond.PIDs))
	}
	if cond.Text != "" {
		parts = append(parts, "text:"+cond.Text)
	}
	if cond.Regex != "" {
		parts = append(parts, "re:"+cond.Regex)
	}
	return strings.Join(parts, " ")
}
