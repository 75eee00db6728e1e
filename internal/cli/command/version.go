package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/geminid/internal/cli/output"
	"github.com/yndnr/geminid/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			return render(c, versionInfo(buildinfo.Get()))
		},
	}
}

type versionInfo buildinfo.Info

func (v versionInfo) Table() *output.Table {
	t := &output.Table{Headers: []string{"KEY", "VALUE"}}
	t.AddRow("version", v.Version)
	t.AddRow("commit", v.Commit)
	t.AddRow("build_time", v.BuildTime)
	t.AddRow("go_version", v.GoVersion)
	return t
}
