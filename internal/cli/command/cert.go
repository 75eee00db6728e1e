package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/geminid/internal/infra/tlscert"
)

// CertCommand returns the cert subcommand group.
func CertCommand() *cli.Command {
	return &cli.Command{
		Name:  "cert",
		Usage: "Certificate helpers",
		Subcommands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "Write a self-signed ECDSA certificate and key for HOST",
				ArgsUsage: "HOST [HOST...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "cert-file",
						Usage:    "Certificate output path",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "key-file",
						Usage:    "Private key output path (written 0600)",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "valid-for",
						Usage: "Certificate lifetime",
						Value: 5 * 365 * 24 * time.Hour,
					},
				},
				Action: certGenerate,
			},
		},
	}
}

func certGenerate(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("generate needs at least one HOST")
	}
	if c.Duration("valid-for") <= 0 {
		return fmt.Errorf("--valid-for must be positive")
	}

	certFile, keyFile := c.String("cert-file"), c.String("key-file")
	if err := tlscert.WriteSelfSigned(certFile, keyFile, c.Duration("valid-for"), c.Args().Slice()...); err != nil {
		return err
	}
	fmt.Fprintf(stderr(c), "wrote %s and %s\n", certFile, keyFile)
	return nil
}
