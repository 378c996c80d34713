package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"go2tv.app/clipper/capture"
)

func newDisplaysCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "displays",
		Short:       "List capturable displays",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			displays, err := capture.Displays()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDisplays(displays))
			return nil
		},
	}
}

func displayRows(displays []capture.Display) [][]string {
	rows := make([][]string, 0, len(displays))
	for _, d := range displays {
		primary := ""
		if d.Primary {
			primary = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(d.Index),
			fmt.Sprintf("%d,%d", d.Bounds.Min.X, d.Bounds.Min.Y),
			fmt.Sprintf("%dx%d", d.Bounds.Dx(), d.Bounds.Dy()),
			primary,
		})
	}
	return rows
}
