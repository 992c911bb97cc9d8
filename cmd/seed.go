package main

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/skuchniy0511/ordkv/types"
)

func SeedHandler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	printTable(cmd.OutOrStdout(), types.FromPairs(cfg.SeedEntries()...))
	return nil
}

func printTable(w io.Writer, m *types.OrderedMap[string, string]) {
	var data [][]string
	for i, e := range m.All() {
		data = append(data, []string{strconv.Itoa(i), e.Key, e.Value})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"INDEX", "KEY", "VALUE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}
