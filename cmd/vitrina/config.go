package main

import (
	"flag"
	"fmt"
	"io"
)

// config is the resolved command line. Defaults come from VITRINA_*
// environment variables, which may be set in a .env file.
type config struct {
	itemsDir        string
	dbPath          string
	addr            string
	adminUser       string
	logPath         string
	importPath      string
	normalizeImages bool
}

const usage = `Usage: vitrina [flags]

Flags:
  -i, -items <dir>        item store directory (env VITRINA_ITEMS, default: items)
  -d, -db <path>          SQLite accounts database (env VITRINA_DB, default: vitrina.sqlite3)
  -a, -addr <host:port>   listen address (env VITRINA_ADDR, default: :8080)
  -u, -user <name>        admin username on first run (env VITRINA_ADMIN, default: Admin)
  -l, -log <path>         log file path (env VITRINA_LOG, default: stdout/stderr only)
  -import <manifest>      import listings from a YAML manifest and exit
  -normalize-images       re-encode stored non-JPEG images as JPEG and exit
  -h, -help               show this help and exit
`

func parseConfig(args []string, getenv func(string) string, out io.Writer) (*config, error) {
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := &config{}
	fs := flag.NewFlagSet("vitrina", flag.ContinueOnError)
	fs.SetOutput(out)

	items := env("VITRINA_ITEMS", "items")
	fs.StringVar(&cfg.itemsDir, "items", items, "")
	fs.StringVar(&cfg.itemsDir, "i", items, "")

	dbPath := env("VITRINA_DB", "vitrina.sqlite3")
	fs.StringVar(&cfg.dbPath, "db", dbPath, "")
	fs.StringVar(&cfg.dbPath, "d", dbPath, "")

	addr := env("VITRINA_ADDR", ":8080")
	fs.StringVar(&cfg.addr, "addr", addr, "")
	fs.StringVar(&cfg.addr, "a", addr, "")

	admin := env("VITRINA_ADMIN", "Admin")
	fs.StringVar(&cfg.adminUser, "user", admin, "")
	fs.StringVar(&cfg.adminUser, "u", admin, "")

	logPath := env("VITRINA_LOG", "")
	fs.StringVar(&cfg.logPath, "log", logPath, "")
	fs.StringVar(&cfg.logPath, "l", logPath, "")

	fs.StringVar(&cfg.importPath, "import", "", "")
	fs.BoolVar(&cfg.normalizeImages, "normalize-images", false, "")

	fs.Usage = func() { fmt.Fprint(out, usage) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if cfg.importPath != "" && cfg.normalizeImages {
		return nil, fmt.Errorf("-import and -normalize-images cannot be combined")
	}
	return cfg, nil
}
