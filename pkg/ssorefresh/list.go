package ssorefresh

import (
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/common-fate/ssorefresh/pkg/cfaws"
	"github.com/common-fate/ssorefresh/pkg/config"
)

var ListCommand = cli.Command{
	Name:  "list",
	Usage: "List the AWS SSO profiles in your AWS config file",
	Action: func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := newStore(c, cfg)
		if err != nil {
			return err
		}
		profiles, err := store.SSOProfiles()
		if err != nil {
			return err
		}
		printProfiles(os.Stdout, profiles)
		return nil
	},
}

func printProfiles(w io.Writer, profiles []*cfaws.Profile) {
	data := make([][]string, len(profiles))
	for i, p := range profiles {
		data[i] = []string{p.Name, p.SSOAccountID, p.SSORoleName, p.SSOStartURL, p.SSORegion, p.Region}
	}

	table := newTable(w)
	table.SetHeader([]string{"PROFILE", "ACCOUNT", "ROLE", "START URL", "SSO REGION", "REGION"})
	table.AppendBulk(data)
	table.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	return table
}
