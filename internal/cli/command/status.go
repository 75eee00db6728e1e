package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/geminid/internal/cli/connection"
	"github.com/yndnr/geminid/internal/cli/output"
	"github.com/yndnr/geminid/internal/server/config"
)

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Query a running geminid's ops endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ops-addr",
				Usage:   "Ops endpoint address",
				EnvVars: []string{"GEMINID_OPS_ADDR"},
				Value:   config.DefaultMetricsAddr,
			},
		},
		Action: serverStatus,
	}
}

type statusResult struct {
	Status  string   `json:"status" yaml:"status"`
	Version string   `json:"version" yaml:"version"`
	Sites   []string `json:"sites" yaml:"sites"`
}

func (s statusResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"KEY", "VALUE"}}
	t.AddRow("status", s.Status)
	t.AddRow("version", s.Version)
	t.AddRow("sites", strings.Join(s.Sites, ","))
	return t
}

func serverStatus(c *cli.Context) error {
	client := connection.NewHTTPClient(c.String("ops-addr"))

	ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
	defer cancel()

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := client.GetJSON(ctx, "/health", &health); err != nil {
		return fmt.Errorf("health: %w", err)
	}

	var sitesResp struct {
		Sites []string `json:"sites"`
	}
	if err := client.GetJSON(ctx, "/sites", &sitesResp); err != nil {
		return fmt.Errorf("sites: %w", err)
	}

	return render(c, statusResult{
		Status:  health.Status,
		Version: health.Version,
		Sites:   sitesResp.Sites,
	})
}
