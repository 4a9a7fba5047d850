package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pos/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage error")

// schemaOp runs against an open migrator
type schemaOp func(m *migration.Migrator, log *zap.Logger) error

// command is either file-only (local) or needs the database (prepare).
// prepare validates arguments before any connection is opened.
type command struct {
	args    string
	summary string
	local   func(dir string, args []string, out io.Writer, log *zap.Logger) error
	prepare func(args []string) (schemaOp, error)
}

var commands = map[string]command{
	"up": {
		summary: "Apply all pending migrations",
		prepare: noArgs(func(m *migration.Migrator, _ *zap.Logger) error { return m.Up() }),
	},
	"down": {
		summary: "Roll back all migrations",
		prepare: noArgs(func(m *migration.Migrator, _ *zap.Logger) error { return m.Down() }),
	},
	"step": {
		args:    "<n>",
		summary: "Apply n migrations (positive=up, negative=down)",
		prepare: func(args []string) (schemaOp, error) {
			n, err := intArg(args, "step count")
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, fmt.Errorf("%w: step count must not be zero", errUsage)
			}
			return func(m *migration.Migrator, _ *zap.Logger) error { return m.Steps(n) }, nil
		},
	},
	"goto": {
		args:    "<version>",
		summary: "Migrate to a specific version",
		prepare: func(args []string) (schemaOp, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("%w: version required", errUsage)
			}
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid version %q", errUsage, args[0])
			}
			return func(m *migration.Migrator, _ *zap.Logger) error { return m.GoTo(uint(v)) }, nil
		},
	},
	"version": {
		summary: "Show current migration version",
		prepare: noArgs(func(m *migration.Migrator, log *zap.Logger) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				log.Info("No migrations applied")
				return nil
			}
			log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
			return nil
		}),
	},
	"force": {
		args:    "<version>",
		summary: "Mark a version as applied and clean (repairs a dirty state)",
		prepare: func(args []string) (schemaOp, error) {
			v, err := intArg(args, "version")
			if err != nil {
				return nil, err
			}
			return func(m *migration.Migrator, _ *zap.Logger) error { return m.Force(v) }, nil
		},
	},
	"create": {
		args:    "<name> [description]",
		summary: "Create a new migration file pair",
		local: func(dir string, args []string, _ io.Writer, log *zap.Logger) error {
			if len(args) < 1 {
				return fmt.Errorf("%w: migration name required", errUsage)
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			log.Info("Migration created",
				zap.Uint("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	},
	"list": {
		summary: "List available migrations",
		local: func(dir string, _ []string, out io.Writer, _ *zap.Logger) error {
			files, err := migration.ListMigrations(dir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				_, err = fmt.Fprintln(out, "No migrations found")
				return err
			}
			for _, f := range files {
				if _, err := fmt.Fprintln(out, "  -", f.BaseName()); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

func noArgs(op schemaOp) func([]string) (schemaOp, error) {
	return func([]string) (schemaOp, error) { return op, nil }
}

func intArg(args []string, what string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: %s required", errUsage, what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errUsage, what, args[0])
	}
	return n, nil
}

func writeUsage(out io.Writer) {
	fmt.Fprintln(out, "POS Ledger Database Migration Tool")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  migrate [flags] <command> [arguments]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(out, "  %-26s %s\n", name+" "+c.args, c.summary)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	fmt.Fprintln(out, "  -path string       Path to migrations directory (default: ./migrations)")
	fmt.Fprintln(out, "  -log-level string  Log level: debug, info, warn, error (default: info)")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "The database is configured through config.toml or POS_DATABASE_HOST,")
	fmt.Fprintln(out, "POS_DATABASE_PORT, POS_DATABASE_USER, POS_DATABASE_PASSWORD,")
	fmt.Fprintln(out, "POS_DATABASE_DBNAME and POS_DATABASE_SSLMODE.")
}
