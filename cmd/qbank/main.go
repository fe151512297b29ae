package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oaib/exam-backend/internal/config"
	"github.com/oaib/exam-backend/internal/database"
	"github.com/oaib/exam-backend/internal/logger"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/oaib/exam-backend/internal/qbankio"
	"github.com/oaib/exam-backend/internal/repository"
	"github.com/oaib/exam-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "qbank",
		Short:        "Import and export the question bank",
		SilenceUsage: true,
	}
	root.AddCommand(importCmd(), exportCmd())
	return root
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import questions from a json, xlsx or csv file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	cmd.Flags().StringP("format", "f", "", "File format (json, xlsx, csv); inferred from the extension when empty")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export questions to a json, xlsx or csv file",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.StringP("format", "f", "json", "File format (json, xlsx, csv)")
	f.String("category", "", "Only questions of this category name or slug")
	f.String("difficulty", "", "Only questions of this difficulty (easy, medium, hard)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

// env is the wiring shared by both subcommands.
type env struct {
	pool     *pgxpool.Pool
	transfer *service.TransferService
	log      zerolog.Logger
}

func setup(ctx context.Context) (*env, error) {
	cfg := config.Load()
	// stdout may carry the exported file.
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "").Output(zerolog.ConsoleWriter{Out: os.Stderr})

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	questionRepo := repository.NewQuestionRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	questions := service.NewQuestionService(questionRepo, categoryRepo, log)

	return &env{
		pool:     pool,
		transfer: service.NewTransferService(questions, questionRepo, log),
		log:      log,
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	rawFormat, _ := cmd.Flags().GetString("format")
	if rawFormat == "" {
		rawFormat = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	format, err := qbankio.ParseFormat(rawFormat)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	ctx, cancel := signalContext()
	defer cancel()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.pool.Close()

	result, err := e.transfer.ImportFile(ctx, format, file)
	if err != nil {
		return err
	}

	e.log.Info().Int("created", result.Created).Int("rejected", len(result.Errors)).Msg("Import finished")
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runExport(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	rawFormat, _ := flags.GetString("format")
	category, _ := flags.GetString("category")
	difficulty, _ := flags.GetString("difficulty")
	output, _ := flags.GetString("output")

	format, err := qbankio.ParseFormat(rawFormat)
	if err != nil {
		return err
	}

	filter := model.QuestionFilter{Category: category}
	if difficulty != "" {
		d := model.Difficulty(difficulty)
		if !d.Valid() {
			return fmt.Errorf("invalid difficulty %q", difficulty)
		}
		filter.Difficulty = &d
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	ctx, cancel := signalContext()
	defer cancel()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.pool.Close()

	n, err := e.transfer.ExportFile(ctx, format, filter, w)
	if err != nil {
		return err
	}
	e.log.Info().Int("exported", n).Str("output", output).Msg("Export finished")
	return nil
}
