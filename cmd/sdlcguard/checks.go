package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/service"
	"github.com/spf13/cobra"
)

// checkPolicyRow is one catalog entry with its role at every level
type checkPolicyRow struct {
	domain.Check
	Levels map[domain.Level]string `json:"levels"`
}

func checksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List the check catalog and how each level treats it",
		Long: `List every compiled-in check with its category and whether each
maturity level requires, optionally runs, or skips it.

Examples:
  sdlcguard checks
  sdlcguard checks --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			rows := checkPolicyMatrix()
			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(rows); err != nil {
					return hardError("failed to encode JSON: %v", err)
				}
				return nil
			}
			return writeCheckMatrix(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().Bool("json", false, "Output the matrix as JSON")
	return cmd
}

func checkPolicyMatrix() []checkPolicyRow {
	catalog := service.NewCatalog(service.CheckDeps{Config: config.DefaultConfig().Checks})
	policy := service.NewLevelPolicy("")

	sets := make(map[domain.Level]domain.CheckSet, 3)
	for _, level := range domain.AllLevels() {
		sets[level] = policy.Resolve(level)
	}

	checks := catalog.List()
	rows := make([]checkPolicyRow, 0, len(checks))
	for _, check := range checks {
		row := checkPolicyRow{Check: check, Levels: make(map[domain.Level]string, 3)}
		for _, level := range domain.AllLevels() {
			row.Levels[level] = roleOf(sets[level], check.ID)
		}
		rows = append(rows, row)
	}
	return rows
}

func roleOf(set domain.CheckSet, id domain.CheckID) string {
	switch {
	case set.IsRequired(id):
		return "required"
	case set.IsOptional(id):
		return "optional"
	default:
		return "skip"
	}
}

func writeCheckMatrix(out io.Writer, rows []checkPolicyRow) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "CHECK\tCATEGORY")
	for _, level := range domain.AllLevels() {
		fmt.Fprintf(w, "\t%s", level)
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s", row.ID, row.Category)
		for _, level := range domain.AllLevels() {
			fmt.Fprintf(w, "\t%s", row.Levels[level])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
