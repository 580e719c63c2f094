package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/livebud/cli"
	"github.com/livebud/color"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	betterfetch "github.com/hyusap/better-fetch"
	"github.com/hyusap/better-fetch/internal/env"
)

func New(log *slog.Logger) *CLI {
	return &CLI{
		log:    log,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

type CLI struct {
	log    *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

func (c *CLI) Parse(ctx context.Context, args ...string) error {
	cli := cli.New("better-fetch", "fetch URLs as clean markdown over MCP")
	cli.Run(func(ctx context.Context) error {
		return c.Stdio(ctx)
	})

	{ // $ better-fetch serve
		cmd := &Serve{Log: c.log}
		cli := cli.Command("serve", "serve the fetch tool over HTTP")
		cli.Flag("listen", "address to listen on").Short('l').Env("BETTER_FETCH_LISTEN").String(&cmd.Listen).Default(":8080")
		cli.Run(func(ctx context.Context) error {
			return c.Serve(ctx, cmd)
		})
	}

	return cli.Parse(ctx, args...)
}

// pipeline builds the fetch pipeline from environment configuration.
func (c *CLI) pipeline() (*betterfetch.Pipeline, error) {
	env, err := env.Load()
	if err != nil {
		return nil, fmt.Errorf("cli: unable to load env: %w", err)
	}
	pipeline := betterfetch.New(c.log, &http.Client{})
	if env.UserAgent != "" {
		pipeline.Fetcher.UserAgent = env.UserAgent
	}
	return pipeline, nil
}

// Stdio serves the fetch tool over standard input and output
func (c *CLI) Stdio(ctx context.Context) error {
	pipeline, err := c.pipeline()
	if err != nil {
		return err
	}
	server := betterfetch.NewServer(c.log, pipeline)
	return server.Run(ctx, &mcp.StdioTransport{})
}

type Serve struct {
	Log    *slog.Logger
	Listen string
}

// Serve exposes the fetch tool over HTTP until the context is canceled
func (c *CLI) Serve(ctx context.Context, in *Serve) error {
	pipeline, err := c.pipeline()
	if err != nil {
		return err
	}
	server := betterfetch.NewServer(c.log, pipeline)
	hs := &http.Server{
		Addr:    in.Listen,
		Handler: betterfetch.Handler(server),
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		return hs.Shutdown(context.Background())
	})
	eg.Go(func() error {
		fmt.Fprintln(c.Stderr, color.Dim("listening on "+in.Listen))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return eg.Wait()
}
