// cmd/chat-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"analytics-chat/internal/api"
	"analytics-chat/internal/app"
	"analytics-chat/internal/common/camunda"
	"analytics-chat/internal/common/config"
	"analytics-chat/internal/common/format"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/models"
	chatorchestrator "analytics-chat/internal/workers/analytics-chat/chat-orchestrator"
	"analytics-chat/pkg/registry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:          "chat-server",
		Short:        "Natural-language analytics over YouTube trending views.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (defaults to ./configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newServeCmd(flags), newAskCmd(flags), newViewsCmd(flags))
	return root
}

func (f *rootFlags) load() (*config.Config, logger.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFromFile(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Logging.Level
	if f.verbose {
		level = "debug"
	}
	return cfg, logger.NewStructured(level, cfg.Logging.Format), nil
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when camunda is enabled, the analytics-chat job worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			if cfg.Camunda.Enabled {
				stopWorker, err := startChatWorker(ctx, cfg, a, log)
				if err != nil {
					return err
				}
				defer stopWorker()
			}

			var ingester api.Ingester
			if a.Ingester != nil {
				ingester = a.Ingester
			}
			srv := &http.Server{
				Addr:         cfg.Server.Addr(),
				Handler:      api.NewServer(a.Service, ingester, log).Handler(),
				ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
				WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("http server listening", map[string]interface{}{"addr": srv.Addr})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// startChatWorker subscribes the whole pipeline to its Zeebe job type.
// Per-stage job types are served by the worker manager.
func startChatWorker(ctx context.Context, cfg *config.Config, a *app.App, log logger.Logger) (func(), error) {
	zeebe, err := camunda.Connect(ctx, cfg.Camunda, time.Minute, log)
	if err != nil {
		return nil, err
	}
	if !config.IsWorkerEnabled(cfg, chatorchestrator.TaskType) {
		zeebe.Close()
		return func() {}, nil
	}
	wcfg := config.GetWorkerConfig(cfg, chatorchestrator.TaskType)
	worker := camunda.NewWorker(
		zeebe.GetClient(),
		chatorchestrator.TaskType,
		wcfg.MaxJobsActive,
		config.GetDuration(wcfg.Timeout),
		a.Workers[chatorchestrator.TaskType],
		log,
	)
	return func() {
		worker.Stop()
		zeebe.Close()
	}, nil
}

func newAskCmd(flags *rootFlags) *cobra.Command {
	var (
		sessionID    string
		showThinking bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			resp := a.Service.Chat(cmd.Context(), strings.Join(args, " "), sessionID)
			printResponse(cmd.OutOrStdout(), resp, showThinking)
			if resp.Error != nil {
				return fmt.Errorf("pipeline returned %s", *resp.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "cli", "session id for follow-up questions")
	cmd.Flags().BoolVar(&showThinking, "thinking", false, "print the pipeline trace")
	return cmd
}

func newViewsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the views questions can be answered from",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := registry.Default()
			if cfg, _, err := flags.load(); err == nil && cfg.Pipeline.RegistryPath != "" {
				if catalog, err = registry.Load(cfg.Pipeline.RegistryPath); err != nil {
					return err
				}
			}
			printViews(cmd.OutOrStdout(), catalog.Views())
			return nil
		},
	}
}

func printViews(w io.Writer, views []registry.ViewDescriptor) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"View", "Description", "Columns"})
	for _, v := range views {
		table.Append([]string{v.Name, v.Description, strings.Join(v.Columns, ", ")})
	}
	table.Render()
}

func printResponse(w io.Writer, resp *models.ChatResponse, showThinking bool) {
	fmt.Fprintln(w, resp.Response)

	if chart := resp.StructuredData; chart != nil && len(chart.Rows) > 0 {
		fmt.Fprintf(w, "\n[%s] %s\n", chart.ChartType, chart.Title)
		printChart(w, chart)
	}

	if len(resp.SuggestedQuestions) > 0 {
		fmt.Fprintln(w, "\n추천 질문:")
		for _, q := range resp.SuggestedQuestions {
			fmt.Fprintf(w, "  - %s\n", q)
		}
	}
	if showThinking && resp.Thinking != "" {
		fmt.Fprintf(w, "\n---\n%s\n", resp.Thinking)
	}
}

func printChart(w io.Writer, chart *models.ChartPayload) {
	columns := chart.Columns
	if len(columns) == 0 {
		for k := range chart.Rows[0] {
			if k != "name" && k != "value" {
				columns = append(columns, k)
			}
		}
		sort.Strings(columns)
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(columns)
	for _, row := range chart.Rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = format.Value(row[c])
		}
		table.Append(cells)
	}
	table.Render()
}
