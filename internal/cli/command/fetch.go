package command

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/geminid/internal/cli/connection"
	"github.com/yndnr/geminid/internal/cli/output"
	"github.com/yndnr/geminid/internal/infra/tlscert"
)

// FetchCommand returns the fetch command.
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Request a gemini:// URL and print the response",
		ArgsUsage: "URL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ca-file",
				Usage: "Verify the server against this PEM CA bundle (default: accept any certificate)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up after this long (0 waits forever)",
				Value: 30 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "header-only",
				Usage: "Print only the response header",
			},
		},
		Action: fetchURL,
	}
}

type fetchResult struct {
	Status int    `json:"status" yaml:"status"`
	Meta   string `json:"meta" yaml:"meta"`
	Body   string `json:"body,omitempty" yaml:"body,omitempty"`
}

func fetchURL(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("fetch takes exactly one URL")
	}

	var tlsConfig *tls.Config
	if caFile := c.String("ca-file"); caFile != "" {
		pool := tlscert.NewEmptyPool()
		if err := pool.AddCertFile(caFile); err != nil {
			return err
		}
		tlsConfig = pool.ClientConfig("")
	}

	client := connection.NewGeminiClient(tlsConfig, c.Duration("timeout"))
	resp, err := client.Fetch(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	headerOnly := c.Bool("header-only")
	if ParseGlobalFlags(c).Output == output.FormatTable {
		w := stdout(c)
		fmt.Fprintf(w, "%s\n", resp.Header())
		if !headerOnly {
			w.Write(resp.Body)
		}
	} else {
		res := fetchResult{Status: resp.Status, Meta: resp.Meta}
		if !headerOnly {
			res.Body = string(resp.Body)
		}
		if err := render(c, res); err != nil {
			return err
		}
	}

	if resp.Status >= 40 {
		return fmt.Errorf("server answered %s", resp.Header())
	}
	return nil
}
