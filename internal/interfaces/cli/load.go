package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/turtacn/patreg-insight/internal/application/ingestion"
	"github.com/turtacn/patreg-insight/internal/domain/ownership"
	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/internal/domain/person"
	"github.com/turtacn/patreg-insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/patreg-insight/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patreg-insight/internal/parsing"
	"github.com/turtacn/patreg-insight/internal/refdata"
)

// loadOptions holds the flags shared by all load subcommands.
type loadOptions struct {
	chunkSize int
	delimiter string
	yes       bool
}

// registerLoadFlags installs the shared flags. The delimiter default differs
// per registry: the patent and ownership exports are comma-delimited, the
// entity registry ships semicolon-separated.
func registerLoadFlags(cmd *cobra.Command, opts *loadOptions, defaultDelimiter string) {
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "rows per batch (default: from config)")
	cmd.Flags().StringVar(&opts.delimiter, "delimiter", defaultDelimiter, "field delimiter for CSV sources")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip the confirmation prompt when the target table is not empty")
}

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load registry export files into the database",
		Long: "Load reads a registry export file (XLSX or delimited text), decodes it\n" +
			"row by row and persists the records in batches. Malformed rows are counted\n" +
			"and skipped; a batch that violates a constraint is dropped whole and the\n" +
			"load continues with the next one.",
	}

	cmd.AddCommand(
		newLoadPatentsCmd(),
		newLoadPersonsCmd(),
		newLoadOwnershipCmd(),
	)
	return cmd
}

func newLoadPatentsCmd() *cobra.Command {
	opts := &loadOptions{}
	cmd := &cobra.Command{
		Use:   "patents FILE",
		Short: "Load a patent registry export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts, args[0], func(env *loadEnv) (*ingestion.Summary, error) {
				var postal *refdata.PostalCodes
				if path := env.ctx.Config.Ingestion.PostalCodesPath; path != "" {
					var err error
					postal, err = refdata.LoadPostalCodes(path)
					if err != nil {
						return nil, fmt.Errorf("failed to load postal codes from %q: %w", path, err)
					}
				}

				repo := repositories.NewPatentRepository(env.pool, env.ctx.Logger)
				if err := confirmExisting[*patent.Patent](cmd, env, repo, opts.yes); err != nil {
					return nil, err
				}

				pipe := ingestion.NewPipeline[*patent.Patent]("patent", parsing.NewPatentDecoder(postal), repo, env.ctx.Logger, env.metrics)
				return pipe.Run(env.runCtx, env.src)
			})
		},
	}
	registerLoadFlags(cmd, opts, ",")
	return cmd
}

func newLoadPersonsCmd() *cobra.Command {
	opts := &loadOptions{}
	cmd := &cobra.Command{
		Use:   "persons FILE",
		Short: "Load a company registry export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts, args[0], func(env *loadEnv) (*ingestion.Summary, error) {
				repo := repositories.NewPersonRepository(env.pool, env.ctx.Logger)
				if err := confirmExisting[*person.Person](cmd, env, repo, opts.yes); err != nil {
					return nil, err
				}

				pipe := ingestion.NewPipeline[*person.Person]("person", parsing.NewPersonDecoder(), repo, env.ctx.Logger, env.metrics)
				return pipe.Run(env.runCtx, env.src)
			})
		},
	}
	registerLoadFlags(cmd, opts, ";")
	return cmd
}

func newLoadOwnershipCmd() *cobra.Command {
	opts := &loadOptions{}
	cmd := &cobra.Command{
		Use:   "ownership FILE",
		Short: "Load patent-to-holder ownership links",
		Long: "Load ownership links between already-loaded patents and companies.\n" +
			"Links referring to records that are not present yet fail their batch at\n" +
			"the foreign-key constraint, so load patents and persons first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts, args[0], func(env *loadEnv) (*ingestion.Summary, error) {
				repo := repositories.NewOwnershipRepository(env.pool, env.ctx.Logger)
				if err := confirmExisting[*ownership.Ownership](cmd, env, repo, opts.yes); err != nil {
					return nil, err
				}

				pipe := ingestion.NewPipeline[*ownership.Ownership]("ownership", parsing.NewOwnershipDecoder(), repo, env.ctx.Logger, env.metrics)
				return pipe.Run(env.runCtx, env.src)
			})
		},
	}
	registerLoadFlags(cmd, opts, ",")
	return cmd
}

// loadEnv bundles the per-run resources handed to each entity runner.
type loadEnv struct {
	ctx     *CLIContext
	runCtx  context.Context
	pool    *pgxpool.Pool
	src     parsing.Source
	metrics ingestion.Metrics
}

// runLoad handles the plumbing common to every load subcommand: connect,
// open the source, install signal-driven cancellation, run, report.
func runLoad(cmd *cobra.Command, opts *loadOptions, path string, run func(*loadEnv) (*ingestion.Summary, error)) error {
	cliCtx, err := getCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(runCtx, cfg.Database, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	chunkSize := opts.chunkSize
	if chunkSize <= 0 {
		chunkSize = cfg.Ingestion.ChunkSize
	}

	srcOpts := []parsing.SourceOption{parsing.WithChunkSize(chunkSize)}
	if opts.delimiter != "" {
		srcOpts = append(srcOpts, parsing.WithDelimiter([]rune(opts.delimiter)[0]))
	}

	src, err := parsing.Open(path, srcOpts...)
	if err != nil {
		return err
	}
	defer src.Close()

	summary, runErr := run(&loadEnv{
		ctx:     cliCtx,
		runCtx:  runCtx,
		pool:    pool,
		src:     src,
		metrics: prometheus.NewMetrics(),
	})
	if summary != nil {
		if printErr := printJSON(cmd, summary); printErr != nil {
			return printErr
		}
	}
	return runErr
}

// confirmExisting prompts before loading into a non-empty table unless --yes
// was passed.
func confirmExisting[R any](cmd *cobra.Command, env *loadEnv, store ingestion.Store[R], skip bool) error {
	existing, err := store.CountAll(env.runCtx)
	if err != nil {
		return err
	}
	if existing == 0 || skip {
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Target table already holds %d records; continue? [y/N]: ", existing)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("load aborted: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return fmt.Errorf("load aborted by user")
	}
}
