package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gartstein/directory/internal/directory/browse"
	"github.com/gartstein/directory/internal/directory/client"
	"github.com/gartstein/directory/internal/directory/events"
	"github.com/gartstein/directory/internal/directory/handlers"
	"github.com/gartstein/directory/internal/directory/render"
	"github.com/gartstein/directory/internal/directory/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	APIBase string
	Origin  string
	Port    int
	Timeout time.Duration
	Plain   bool

	logger *zap.Logger
}

func newRootCommand(logger *zap.Logger) *cobra.Command {
	opts := &rootOptions{logger: logger}

	cmd := &cobra.Command{
		Use:           "directory",
		Short:         "Browse the company directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.APIBase, "api-base", os.Getenv("API_BASE"), "API root, e.g. http://localhost:5000/api (env API_BASE)")
	cmd.PersistentFlags().StringVar(&opts.Origin, "origin", "", "origin the client is served from; loopback origins use the local server")
	cmd.PersistentFlags().IntVar(&opts.Port, "port", client.DefaultLocalPort, "port of the local server")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "request timeout")
	cmd.PersistentFlags().BoolVar(&opts.Plain, "plain", false, "disable colors")

	cmd.AddCommand(
		newListCommand(opts),
		newGetCommand(opts),
		newBrowseCommand(opts),
		newEventsCommand(opts),
	)
	return cmd
}

// baseURL resolves the API root from the flags.
func (o *rootOptions) baseURL() (string, error) {
	var origin *url.URL
	if o.Origin != "" {
		u, err := url.Parse(o.Origin)
		if err != nil {
			return "", fmt.Errorf("invalid --origin: %w", err)
		}
		origin = u
	}
	return client.ResolveBaseURL(o.APIBase, origin, o.Port), nil
}

func (o *rootOptions) client() (*client.Client, error) {
	base, err := o.baseURL()
	if err != nil {
		return nil, err
	}
	return client.New(base, &http.Client{Timeout: o.Timeout}, o.logger), nil
}

func (o *rootOptions) renderer() *render.Renderer {
	if o.Plain {
		return render.New(render.PlainStyles())
	}
	return render.Default()
}

type listOptions struct {
	*rootOptions
	Query    string
	Industry string
	Location string
	Page     int
	View     string
}

func newListCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &listOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of companies",
		Long: `Fetch the directory and print one page of the filtered result.

Example:
  directory list --q tech --location Bengaluru --view cards`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Query, "q", "", "search text matched against name and industry")
	cmd.Flags().StringVar(&opts.Industry, "industry", browse.All, "industry filter")
	cmd.Flags().StringVar(&opts.Location, "location", browse.All, "location filter")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().StringVar(&opts.View, "view", string(render.ModeTable), "table or cards")

	return cmd
}

func runList(ctx context.Context, opts *listOptions, out io.Writer) error {
	mode, err := render.ParseMode(opts.View)
	if err != nil {
		return err
	}
	c, err := opts.client()
	if err != nil {
		return err
	}

	var loader client.Loader
	loader.Begin()
	loader.Finish(c.FetchCollection(ctx))
	if loader.Status() == client.StatusError {
		fmt.Fprintln(out, opts.renderer().Err(loader.Message()))
		return fmt.Errorf("fetch from %s failed", c.BaseURL())
	}

	state := browse.NewFilterState().
		WithQuery(opts.Query).
		WithIndustry(opts.Industry).
		WithLocation(opts.Location)
	state.Page = opts.Page

	fmt.Fprintln(out, opts.renderer().Page(browse.Derive(loader.Data(), state), mode))
	return nil
}

type getOptions struct {
	*rootOptions
	GRPC     bool
	GRPCAddr string
}

func newGetCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &getOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.GRPC, "grpc", false, "use the gRPC service instead of REST")
	cmd.Flags().StringVar(&opts.GRPCAddr, "grpc-addr", "localhost:5001", "gRPC server address")

	return cmd
}

func runGet(ctx context.Context, opts *getOptions, arg string, out io.Writer) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", arg)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	if opts.GRPC {
		conn, err := grpc.NewClient(opts.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("failed to dial %s: %w", opts.GRPCAddr, err)
		}
		defer conn.Close()

		s, err := handlers.NewCompanyDirectoryClient(conn).GetCompany(ctx, id)
		if err != nil {
			return err
		}
		company, err := handlers.StructToModel(s)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, opts.renderer().Details(*company))
		return nil
	}

	c, err := opts.client()
	if err != nil {
		return err
	}
	company, err := c.GetCompany(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, opts.renderer().Details(*company))
	return nil
}

func newBrowseCommand(rootOpts *rootOptions) *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the directory interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := render.ParseMode(view)
			if err != nil {
				return err
			}
			c, err := rootOpts.client()
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), c, mode)
		},
	}

	cmd.Flags().StringVar(&view, "view", string(render.ModeTable), "initial view: table or cards")
	return cmd
}

type eventsOptions struct {
	*rootOptions
	Brokers string
	Topic   string
	GroupID string
}

func newEventsCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &eventsOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow the directory change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvents(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Brokers, "brokers", envOr("KAFKA_BROKERS", "localhost:9092"), "comma-separated Kafka brokers")
	cmd.Flags().StringVar(&opts.Topic, "topic", envOr("TOPIC", "directory.events"), "topic to follow")
	cmd.Flags().StringVar(&opts.GroupID, "group", "directory-cli", "consumer group id")

	return cmd
}

func runEvents(ctx context.Context, opts *eventsOptions, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := events.NewConsumer(strings.Split(opts.Brokers, ","), opts.GroupID, opts.Topic, opts.logger)
	defer consumer.Close()

	consumer.RegisterHandler(func(_ context.Context, ev events.Event) error {
		return printEvent(out, ev)
	})
	return consumer.Run(ctx)
}

func printEvent(out io.Writer, ev events.Event) error {
	line := fmt.Sprintf("%s  %-17s", ev.OccurredAt.Format(time.RFC3339), ev.Type)
	switch {
	case ev.Company != nil:
		line += fmt.Sprintf("  #%d %s", ev.Company.ID, ev.Company.Name)
	case ev.Source != "":
		line += fmt.Sprintf("  %s (%s)", ev.Source, ev.Op)
	}
	_, err := fmt.Fprintln(out, line)
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
