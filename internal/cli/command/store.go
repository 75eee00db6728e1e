package command

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/geminid/internal/cli/output"
	"github.com/yndnr/geminid/internal/content"
	"github.com/yndnr/geminid/internal/core/domain"
	"github.com/yndnr/geminid/internal/server/sites"
	"github.com/yndnr/geminid/internal/storage"
)

// StoreCommand returns the store subcommand group.
//
// These commands open the Badger directory directly and fail while a
// running geminid holds it.
func StoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Manage kv document stores",
		Subcommands: []*cli.Command{
			{
				Name:      "put",
				Usage:     "Store a document (FILE \"-\" reads stdin)",
				ArgsUsage: "HOST PATH FILE",
				Flags: []cli.Flag{
					dbDirFlag(),
					&cli.StringFlag{
						Name:  "mime",
						Usage: "MIME type (default: derived from FILE's extension)",
					},
				},
				Action: storePut,
			},
			{
				Name:      "get",
				Usage:     "Print a document's body",
				ArgsUsage: "HOST PATH",
				Flags:     []cli.Flag{dbDirFlag()},
				Action:    storeGet,
			},
			{
				Name:      "ls",
				Usage:     "List documents, optionally for one host",
				ArgsUsage: "[HOST]",
				Flags:     []cli.Flag{dbDirFlag()},
				Action:    storeList,
			},
			{
				Name:      "rm",
				Usage:     "Delete a document",
				ArgsUsage: "HOST PATH",
				Flags:     []cli.Flag{dbDirFlag()},
				Action:    storeRemove,
			},
			{
				Name:      "backup",
				Usage:     "Write a full backup (FILE \"-\" writes stdout)",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{dbDirFlag()},
				Action:    storeBackup,
			},
			{
				Name:      "restore",
				Usage:     "Replace the store's contents with a backup",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{dbDirFlag()},
				Action:    storeRestore,
			},
			{
				Name:   "gc",
				Usage:  "Reclaim space held by deleted or replaced documents",
				Flags:  []cli.Flag{dbDirFlag()},
				Action: storeGC,
			},
		},
	}
}

func dbDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db-dir",
		Aliases:  []string{"d"},
		Usage:    "Badger directory of the store",
		EnvVars:  []string{"GEMINID_DB_DIR"},
		Required: true,
	}
}

// withStore opens the store named by --db-dir, runs fn and closes it.
func withStore(c *cli.Context, fn func(*storage.DocumentStore) error) error {
	stores := sites.NewStores(cliLogger(c), nil)
	st, err := stores.Open(c.String("db-dir"))
	if err != nil {
		return err
	}
	err = fn(st)
	if cerr := stores.Close(); err == nil {
		err = cerr
	}
	return err
}

// docAddr returns HOST and PATH in the form a request is looked up by:
// normalized host, percent-encoded path without dot segments.
func docAddr(host, path string) (string, string, error) {
	h, err := domain.NormalizeHost(host)
	if err != nil {
		return "", "", fmt.Errorf("host %q: %w", host, err)
	}
	if !strings.HasPrefix(path, "/") {
		return "", "", fmt.Errorf("path %q must start with /", path)
	}
	return h, domain.CanonicalPath(path), nil
}

func storePut(c *cli.Context) error {
	if c.NArg() != 3 {
		return fmt.Errorf("put takes HOST PATH FILE")
	}
	host, path, err := docAddr(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	file := c.Args().Get(2)

	var body []byte
	if file == "-" {
		body, err = io.ReadAll(c.App.Reader)
	} else {
		body, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	mime := c.String("mime")
	if mime == "" {
		mime = domain.MIMEGemini
		if file != "-" {
			mime = content.MIMEType(file)
		}
	}

	doc := &storage.Document{Host: host, Path: path, MIME: mime, Body: body}
	return withStore(c, func(st *storage.DocumentStore) error {
		if err := st.Put(c.Context, doc); err != nil {
			return err
		}
		return render(c, docList{infoOf(doc)})
	})
}

func storeGet(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("get takes HOST PATH")
	}
	host, path, err := docAddr(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	return withStore(c, func(st *storage.DocumentStore) error {
		doc, err := st.Get(c.Context, host, path)
		if err != nil {
			return err
		}
		_, err = stdout(c).Write(doc.Body)
		return err
	})
}

func storeList(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("ls takes at most one HOST")
	}
	return withStore(c, func(st *storage.DocumentStore) error {
		infos, err := st.List(c.Context, c.Args().First())
		if err != nil {
			return err
		}
		list := make(docList, 0, len(infos))
		for _, info := range infos {
			list = append(list, docRow{
				Host:      info.Host,
				Path:      info.Path,
				MIME:      info.MIME,
				Size:      info.Size,
				UpdatedAt: info.UpdatedAt,
			})
		}
		return render(c, list)
	})
}

func storeRemove(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("rm takes HOST PATH")
	}
	host, path, err := docAddr(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	return withStore(c, func(st *storage.DocumentStore) error {
		if err := st.Delete(c.Context, host, path); err != nil {
			if errors.Is(err, storage.ErrDocumentNotFound) {
				return fmt.Errorf("%s%s: %w", host, path, err)
			}
			return err
		}
		fmt.Fprintf(stderr(c), "removed %s%s\n", host, path)
		return nil
	})
}

func storeBackup(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("backup takes FILE")
	}
	file := c.Args().First()
	return withStore(c, func(st *storage.DocumentStore) error {
		if file == "-" {
			return st.Engine().Backup(c.Context, stdout(c))
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return err
		}
		if err := st.Engine().Backup(c.Context, f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

func storeRestore(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("restore takes FILE")
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	return withStore(c, func(st *storage.DocumentStore) error {
		return st.Engine().Restore(c.Context, f)
	})
}

func storeGC(c *cli.Context) error {
	return withStore(c, func(st *storage.DocumentStore) error {
		rewritten, err := st.Engine().GC(c.Context)
		if err != nil {
			return err
		}
		stats, err := st.Engine().Stats(c.Context)
		if err != nil {
			return err
		}
		return render(c, &output.Table{
			Headers: []string{"REWRITTEN", "LSM_BYTES", "VLOG_BYTES"},
			Rows: [][]string{{
				strconv.FormatUint(rewritten, 10),
				strconv.FormatUint(stats.LSMSize, 10),
				strconv.FormatUint(stats.ValueLogSize, 10),
			}},
		})
	})
}

type docRow struct {
	Host      string    `json:"host" yaml:"host"`
	Path      string    `json:"path" yaml:"path"`
	MIME      string    `json:"mime" yaml:"mime"`
	Size      int       `json:"size" yaml:"size"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

type docList []docRow

func (l docList) Table() *output.Table {
	t := &output.Table{}
	t.SetHeaders("HOST", "PATH", "MIME", "SIZE", "UPDATED")
	for _, d := range l {
		t.AddRow(d.Host, d.Path, d.MIME, strconv.Itoa(d.Size), d.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return t
}

func infoOf(doc *storage.Document) docRow {
	return docRow{
		Host:      doc.Host,
		Path:      doc.Path,
		MIME:      doc.MIME,
		Size:      len(doc.Body),
		UpdatedAt: doc.UpdatedAt,
	}
}
