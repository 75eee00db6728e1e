package command

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/geminid/internal/cli/output"
	"github.com/yndnr/geminid/internal/server/config"
	"github.com/yndnr/geminid/internal/server/sites"
)

const configHeader = "# geminid configuration. Environment variables GEMINID_<SECTION>_<KEY>\n" +
	"# override scalar settings, e.g. GEMINID_LOG_LEVEL=debug.\n"

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Server configuration management",
		Subcommands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Write an example configuration (stdout if FILE is omitted)",
				ArgsUsage: "[FILE]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
			{
				Name:      "check",
				Usage:     "Verify a configuration and load every site's certificate and source",
				ArgsUsage: "[FILE]",
				Action:    configCheck,
			},
			{
				Name:      "show",
				Usage:     "Print the effective configuration after environment overrides",
				ArgsUsage: "[FILE]",
				Action:    configShow,
			},
		},
	}
}

// configPath returns the positional FILE, falling back to --config.
func configPath(c *cli.Context) string {
	if c.NArg() > 0 {
		return c.Args().First()
	}
	return ParseGlobalFlags(c).Config
}

func configInit(c *cli.Context) error {
	data, err := yaml.Marshal(config.Example())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append([]byte(configHeader), data...)

	path := c.Args().First()
	if path == "" {
		_, err := stdout(c).Write(data)
		return err
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !c.Bool("force") {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stderr(c), "wrote %s\n", path)
	return nil
}

type siteCheck struct {
	Host        string    `json:"host" yaml:"host"`
	Source      string    `json:"source" yaml:"source"`
	Location    string    `json:"location" yaml:"location"`
	CertExpires time.Time `json:"cert_expires" yaml:"cert_expires"`
	CertMatches bool      `json:"cert_matches_host" yaml:"cert_matches_host"`
}

type siteChecks []siteCheck

func (s siteChecks) Table() *output.Table {
	t := &output.Table{}
	t.SetHeaders("HOST", "SOURCE", "LOCATION", "CERT_EXPIRES", "CERT_MATCHES")
	for _, sc := range s {
		t.AddRow(sc.Host, sc.Source, sc.Location,
			sc.CertExpires.UTC().Format(time.RFC3339), fmt.Sprint(sc.CertMatches))
	}
	return t
}

func configCheck(c *cli.Context) error {
	cfg, err := config.Load(configPath(c))
	if err != nil {
		return err
	}

	pairs, err := sites.LoadKeyPairs(cfg.Sites, cliLogger(c))
	if err != nil {
		return err
	}

	checks := make(siteChecks, 0, len(cfg.Sites))
	for _, sc := range cfg.Sites {
		check := siteCheck{Host: sc.Host, Source: sc.Source.Type}

		leaf, err := pairs[sc.Host].Leaf()
		if err != nil {
			return fmt.Errorf("site %s: %w", sc.Host, err)
		}
		check.CertExpires = leaf.NotAfter
		check.CertMatches = leaf.VerifyHostname(sc.Host) == nil

		switch sc.Source.Type {
		case config.SourceKV:
			// Opening the store would fail while geminid holds its lock.
			check.Location = sc.Source.DBDir
		default:
			if _, err := sites.NewSource(sc, nil); err != nil {
				return err
			}
			check.Location = sc.Source.Directory
		}
		checks = append(checks, check)
	}

	if len(checks) == 0 {
		fmt.Fprintln(stderr(c), "warning: no sites configured, every request will be answered with 51")
	}
	return render(c, checks)
}

func configShow(c *cli.Context) error {
	cfg, err := config.Load(configPath(c))
	if err != nil {
		return err
	}
	if ParseGlobalFlags(c).Output == output.FormatTable {
		return (&output.YAMLFormatter{}).Format(stdout(c), cfg)
	}
	return render(c, cfg)
}
