package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sartorproj/autoforecast/autoselect"
	"github.com/sartorproj/autoforecast/console"
	"github.com/sartorproj/autoforecast/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the forecasting backend provides",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCapabilities(cfg.NewConsole(cmd.OutOrStdout()), models.Default(), cfg.ModelAliases())
	},
}

func printCapabilities(con *console.Console, backend models.Backend, aliases map[string]string) error {
	caps, err := backend.Capabilities()
	if err != nil {
		return err
	}

	index := make([]string, len(caps.Models))
	rows := make([][]string, len(caps.Models))
	for i, name := range caps.Models {
		index[i] = name
		display := name
		if alias, ok := aliases[name]; ok {
			display = alias
		}
		role := ""
		switch {
		case name == autoselect.FallbackModel:
			role = "fallback"
		case slices.Contains(autoselect.CandidateModels, name):
			role = "candidate"
		}
		rows[i] = []string{display, strings.Join(caps.Params[name], ", "), role}
	}

	return con.PrintTable(console.Table{
		Title:     fmt.Sprintf("[bold]%s %s[/bold]", caps.Name, caps.Version),
		IndexName: "Model",
		Headers:   []string{"Display", "Parameters", "Role"},
		Index:     index,
		Rows:      rows,
		ShowIndex: true,
	})
}
