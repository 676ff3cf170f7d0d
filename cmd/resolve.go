package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/hems/core/entity"
	"github.com/kilianp07/hems/core/model"
)

var (
	resolveStrict  bool
	resolveDomains []string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>...",
	Short: "Print the device id each control signal name resolves to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		domains := make([]model.Domain, 0, len(resolveDomains))
		for _, d := range resolveDomains {
			domains = append(domains, model.Domain(d))
		}
		r := entity.NewResolver(entity.WithDomains(domains...), entity.WithStrict(resolveStrict))
		out := cmd.OutOrStdout()
		for _, name := range args {
			res, err := r.Resolve(name)
			if err != nil {
				fmt.Fprintf(out, "%s\trejected\t%v\n", name, err)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", name, res.ID, res.Path)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveStrict, "strict", false, "reject names without marker or repeated domain")
	resolveCmd.Flags().StringSliceVar(&resolveDomains, "domains", nil, "allowed domains (default: all supported)")
	rootCmd.AddCommand(resolveCmd)
}
