package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/DeprecatedLuar/sqldevcfg/internal/commands"
	"github.com/DeprecatedLuar/sqldevcfg/internal/commands/parser"
	"github.com/DeprecatedLuar/sqldevcfg/internal/config"
	"github.com/DeprecatedLuar/sqldevcfg/internal/discovery"
	"github.com/DeprecatedLuar/sqldevcfg/internal/logging"
	"github.com/DeprecatedLuar/sqldevcfg/internal/ui"
)

var (
	debugMode   bool
	verboseMode bool
	rt          *commands.Runtime
)

func dryRunFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "dry-run",
		Aliases: []string{"n"},
		Usage:   "Show what would change without writing",
	}
}

func passwordFlags(usage string, required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "password",
			Aliases:  []string{"p", "encrypted-password"},
			Usage:    usage,
			Required: required,
		},
		&cli.StringFlag{
			Name:     "db-system-id-value",
			Aliases:  []string{"d"},
			Usage:    "db.system.id of the installation the password belongs to",
			Required: true,
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "sqldevcfg",
		Usage: "Manage SQL Developer connections and saved passwords",

		// --json values are JSON documents and must not be split on commas
		DisableSliceFlagSeparator: true,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "Directory holding the system* installation directories (default ~/.sqldeveloper)",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to config.toml",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json or yaml",
			},
			&cli.BoolFlag{
				Name:  "no-backup",
				Usage: "Do not snapshot files before writing",
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Aliases:     []string{"v"},
				Usage:       "Report what is written",
				Destination: &verboseMode,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "Enable debug output",
				Destination: &debugMode,
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "decrypt",
				Aliases: []string{"manual", "manual_show"},
				Usage:   "Decrypt one password with a db.system.id value",
				Flags:   passwordFlags("Encrypted password from connections.xml", true),
				Action: func(c *cli.Context) error {
					return commands.HandleDecrypt(rt, c.String("password"), c.String("db-system-id-value"))
				},
			},
			{
				Name:  "encrypt",
				Usage: "Encrypt one password with a db.system.id value",
				Flags: passwordFlags("Plaintext password (prompted when omitted)", false),
				Action: func(c *cli.Context) error {
					return commands.HandleEncrypt(rt, c.String("password"), c.String("db-system-id-value"))
				},
			},
			{
				Name:    "list",
				Aliases: []string{"ls", "auto", "auto_show"},
				Usage:   "List every installation with its connections and passwords",
				Action: func(c *cli.Context) error {
					return commands.HandleList(rt)
				},
			},
			{
				Name:      "add",
				Aliases:   []string{"add_connection", "add_connections"},
				Usage:     "Add connections to every installation",
				ArgsUsage: "[key=value...] [#folder]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "interactive",
						Aliases: []string{"i"},
						Usage:   "Ask for the connection attributes",
					},
					&cli.StringSliceFlag{
						Name:  "json",
						Usage: "Connection attributes as a JSON object or array",
					},
					&cli.StringSliceFlag{
						Name:    "json-file",
						Aliases: []string{"json-files"},
						Usage:   "JSON or TOML file with connection attributes",
					},
					dryRunFlag(),
				},
				Action: func(c *cli.Context) error {
					return commands.HandleAdd(rt, commands.AddOptions{
						Interactive: c.Bool("interactive"),
						JSON:        c.StringSlice("json"),
						JSONFiles:   c.StringSlice("json-file"),
						Args:        c.Args().Slice(),
						DryRun:      c.Bool("dry-run"),
					})
				},
			},
			{
				Name:    "set-passwords",
				Aliases: []string{"set_passwords"},
				Usage:   "Set the password of every connection matching the filters",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name-regex", Usage: "Regex searched in the connection name"},
					&cli.StringFlag{Name: "user-regex", Usage: "Regex searched in the user name"},
					&cli.StringFlag{Name: "host-regex", Usage: "Regex searched in the host URL"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "New password (prompted when omitted)"},
					dryRunFlag(),
				},
				Action: func(c *cli.Context) error {
					return commands.HandleSetPasswords(rt, commands.SetPasswordsOptions{
						NameRegex: c.String("name-regex"),
						UserRegex: c.String("user-regex"),
						HostRegex: c.String("host-regex"),
						Password:  c.String("password"),
						DryRun:    c.Bool("dry-run"),
					})
				},
			},
			{
				Name:      "find",
				Aliases:   []string{"search", "s"},
				Usage:     "Search connections by name, folder, user and host",
				ArgsUsage: "<query>",
				Action: func(c *cli.Context) error {
					return commands.HandleFind(rt, c.Args().Slice())
				},
			},
			{
				Name:      "view",
				Usage:     "Show a connection's attributes",
				ArgsUsage: "<name|n>",
				Action: func(c *cli.Context) error {
					return commands.HandleView(rt, c.Args().Slice())
				},
			},
			{
				Name:      "edit",
				Aliases:   []string{"e"},
				Usage:     "Edit a connection in $EDITOR",
				ArgsUsage: "<name|n>",
				Flags:     []cli.Flag{dryRunFlag()},
				Action: func(c *cli.Context) error {
					return commands.HandleEdit(rt, c.Args().Slice(), c.Bool("dry-run"))
				},
			},
			{
				Name:      "rm",
				Usage:     "Remove connections",
				ArgsUsage: "<name|n>...",
				Flags:     []cli.Flag{dryRunFlag()},
				Action: func(c *cli.Context) error {
					return commands.HandleRemove(rt, c.Args().Slice(), c.Bool("dry-run"))
				},
			},
			{
				Name:      "mv",
				Usage:     "Move connections to a folder",
				ArgsUsage: "<name|n> <folder>",
				Flags:     []cli.Flag{dryRunFlag()},
				Action: func(c *cli.Context) error {
					return commands.HandleMove(rt, c.Args().Slice(), c.Bool("dry-run"))
				},
			},
			{
				Name:      "export",
				Usage:     "Seal connections into a passphrase-protected file",
				ArgsUsage: "<file> [name|n...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "passphrase", Usage: "Passphrase (prompted when omitted)"},
				},
				Action: func(c *cli.Context) error {
					return commands.HandleExport(rt, c.Args().Slice(), c.String("passphrase"))
				},
			},
			{
				Name:      "import",
				Usage:     "Add connections from an exported file to every installation",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "passphrase", Usage: "Passphrase (prompted when omitted)"},
					dryRunFlag(),
				},
				Action: func(c *cli.Context) error {
					return commands.HandleImport(rt, c.Args().Slice(), c.String("passphrase"), c.Bool("dry-run"))
				},
			},
			{
				Name:  "undo",
				Usage: "Restore the files saved before the last write",
				Action: func(c *cli.Context) error {
					return commands.HandleUndo(rt, c.Args().Slice())
				},
			},
			{
				Name:    "info",
				Aliases: []string{"doctor"},
				Usage:   "Check every installation and summarize it",
				Action: func(c *cli.Context) error {
					return commands.HandleInfo(rt)
				},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if root := c.String("root"); root != "" {
				cfg.Root = root
			}
			if format := c.String("format"); format != "" {
				cfg.Format = format
			}
			if c.Bool("no-backup") {
				cfg.Backup = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			Debugf("root %s, format %s, backup %t", cfg.Root, cfg.Format, cfg.Backup)

			rt = &commands.Runtime{
				Config:     cfg,
				Log:        logging.Logger{Verbose: verboseMode, Debug: debugMode},
				Discoverer: discovery.FS{Root: cfg.Root},
				Prompter:   &ui.Prompter{},
				Out:        c.App.Writer,
				Err:        c.App.ErrWriter,
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			// Default action: sqldevcfg <n> views a numbered result, anything
			// else is a search
			if c.NArg() == 0 {
				cli.ShowAppHelp(c)
				return nil
			}

			args := c.Args().Slice()
			if len(args) == 1 {
				if _, ok := parser.ParseIndex(args[0]); ok {
					return commands.HandleView(rt, args)
				}
			}
			return commands.HandleFind(rt, args)
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Debugf(format string, args ...any) {
	if debugMode {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}
