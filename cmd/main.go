package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skuchniy0511/ordkv/api"
	"github.com/skuchniy0511/ordkv/client"
	"github.com/skuchniy0511/ordkv/config"
	"github.com/skuchniy0511/ordkv/server"
	"github.com/skuchniy0511/ordkv/store"
)

func main() {
	if err := NewCLI().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ordkv",
		Short:        "Ordered key/value store served over a message queue",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, true, true)
		},
	}
	rootCmd.PersistentFlags().String("config", "./config.yaml", "Path to config file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the server, the HTTP API and the clients manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, true, true)
		},
	}

	serveCmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the server and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, true, false)
		},
	}

	clientsCmd := &cobra.Command{
		Use:   "clients",
		Short: "Read client tasks and send them to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, true)
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Show the initial contents from the config file",
		RunE:  SeedHandler,
	}

	rootCmd.AddCommand(runCmd, serveCmd, clientsCmd, seedCmd)

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New("specify config file path with --config flag")
	}

	return config.LoadConfig(path)
}

func run(cmd *cobra.Command, withServer, withClients bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := server.NewLogger(cfg, "ordkv")
	if err != nil {
		return err
	}

	if cfg.Transport == config.TransportMemory && withServer != withClients {
		return fmt.Errorf("transport %s only works with the run command", cfg.Transport)
	}

	tr, err := server.OpenTransport(cfg, logger)
	if err != nil {
		return err
	}
	defer tr.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if withServer {
		data := store.New(cfg.SeedEntries()...)

		serverR, err := server.NewServer(cfg, tr, data)
		if err != nil {
			return err
		}
		g.Go(serverR.StartServer)
		g.Go(func() error {
			<-ctx.Done()
			serverR.Cancel()
			return nil
		})

		if cfg.HTTPAddr != "" {
			httpAPI := api.New(data, logger.New("service", "api"))
			g.Go(func() error {
				return httpAPI.Listen(cfg.HTTPAddr)
			})
			g.Go(func() error {
				<-ctx.Done()
				return httpAPI.Shutdown()
			})
		}
	}

	if withClients {
		clientsManager, err := client.NewClientsManager(cfg, tr, logger.New("service", "client"))
		if err != nil {
			return err
		}
		g.Go(clientsManager.ListenClientActions)
		g.Go(func() error {
			<-ctx.Done()
			clientsManager.Cancel()
			return nil
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		logger.Error("Stopped", "error", err)
	}

	return err
}
