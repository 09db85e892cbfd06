// Command httpd is the Go analogue of original_source/HTTPD.py: it wires
// a Dispatcher with the same three routes (/, /favicon.ico, and a
// catch-all), a Logger, and optionally a cert/key watcher, per spec.md
// §9's decision that hot-reload belongs to the host process rather than
// the core. When either file changes the watcher logs that a restart is
// required; it does not restart the listener.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gopherhttp/httpd/dispatch"
	"github.com/gopherhttp/httpd/logging"
	"github.com/gopherhttp/httpd/server"
	"github.com/gopherhttp/httpd/watch"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "httpd",
		Short: "An embeddable HTTP/1.1+HTTP/2 demo server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v)
		},
	}

	var flags *pflag.FlagSet = cmd.Flags()
	flags.Int("port", 8000, "listen port")
	flags.String("cert", "", "TLS certificate file (PEM); empty disables TLS")
	flags.String("key", "", "TLS private key file (PEM)")
	flags.String("password", "", "passphrase for an encrypted private key")
	flags.Bool("verbose", false, "enable debug-level logging")
	flags.Bool("watch", false, "log a restart-required error when cert/key change on disk")

	v.BindPFlags(flags)
	v.SetEnvPrefix("HTTPD")
	v.AutomaticEnv()

	return cmd
}

func run(v *viper.Viper) error {
	log := logging.New(v.GetBool("verbose"))
	defer log.Sync()

	d := routes()

	cfg := server.Config{
		Port:       v.GetInt("port"),
		CertFile:   v.GetString("cert"),
		KeyFile:    v.GetString("key"),
		Password:   v.GetString("password"),
		Dispatcher: d,
		Logger:     log,
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	var watcher *watch.Watcher
	if v.GetBool("watch") && cfg.CertFile != "" {
		paths := []string{cfg.CertFile}
		if cfg.KeyFile != "" {
			paths = append(paths, cfg.KeyFile)
		}
		watcher, err = watch.New(paths, 500_000_000, func() {
			log.Errorf("httpd: cert/key changed on disk, restart required to pick up the change")
		}, nil)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		log.Debugf("httpd: shutting down")
		return srv.Shutdown(context.Background())
	}
}

// routes registers HTTPD.py's three handlers: the root, the favicon
// placeholder, and a catch-all over any other path.
func routes() *dispatch.Dispatcher {
	d := dispatch.New()

	d.Handle([]string{"GET"}, "/", func(ctx *dispatch.Context) (any, error) {
		return "test1", nil
	})
	d.Handle([]string{"GET"}, "/favicon.ico", func(ctx *dispatch.Context) (any, error) {
		return "test2", nil
	})
	d.HandlePattern([]string{"GET"}, `/?[0-9a-zA-Z/]*?/?`, func(ctx *dispatch.Context) (any, error) {
		return "catched", nil
	})

	return d
}
