package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"zetflix/internal/provider"
)

var providersCmd = &cobra.Command{
	Use:   "providers [movie|tv|anime]",
	Short: "List embed providers in the order playback tries them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  providersRun,
}

func providersRun(cmd *cobra.Command, args []string) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}

	var list []provider.Provider
	if len(args) > 0 || flagKind != "" {
		kind, err := parseKindArg(args)
		if err != nil {
			return err
		}
		list = reg.List(kind)
	} else {
		list = reg.All()
	}

	if flagJSON {
		return printJSON(map[string]any{"providers": list})
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRIORITY\tKINDS\tSTATUS")
	for _, p := range list {
		kinds := make([]string, len(p.Kinds))
		for i, k := range p.Kinds {
			kinds[i] = k.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", p.ID, p.DisplayName, p.Priority, strings.Join(kinds, ","), p.Status)
	}
	return tw.Flush()
}
