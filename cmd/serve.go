package cmd

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dogukanarat/danp"
	"github.com/dogukanarat/danp/config"
	"github.com/dogukanarat/danp/link/loopback"
	"github.com/dogukanarat/danp/link/quicdgram"
	"github.com/dogukanarat/danp/link/wsock"
	"github.com/dogukanarat/danp/log"
)

func cmdServe() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve CONFIG-FILE",
		Short:   "Start a DANP node from a deployment config",
		GroupID: "daemon",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return serve(args[0])
		},
	}
	return cmd
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.ApplyLogLevel()

	st, err := danp.New(danp.Config{Node: cfg.Node})
	if err != nil {
		return fmt.Errorf("danp: start stack: %w", err)
	}

	var mux *http.ServeMux
	for _, lc := range cfg.Links {
		switch lc.Kind {
		case "loopback":
			lo := loopback.New(lc.Name, cfg.Node, 132, st.Ingress())
			if err := st.RegisterInterface(lo.Iface); err != nil {
				return err
			}
		case "websocket":
			if mux == nil {
				mux = http.NewServeMux()
			}
			name := lc.Name
			mux.HandleFunc("/"+name, func(w http.ResponseWriter, r *http.Request) {
				l, err := wsock.Accept(w, r, name, cfg.Node, st.Ingress())
				if err != nil {
					log.Warn("websocket accept failed", "link", name, "err", err)
					return
				}
				if err := st.RegisterInterface(l.Iface); err != nil {
					log.Warn("failed to register websocket link", "link", name, "err", err)
				}
			})
		case "quic":
			tlsConf := &tls.Config{InsecureSkipVerify: true}
			l, err := quicdgram.Listen(context.Background(), lc.Addr, tlsConf, lc.Name, cfg.Node, st.Ingress())
			if err != nil {
				return err
			}
			if err := st.RegisterInterface(l.Iface); err != nil {
				return err
			}
		default:
			return fmt.Errorf("danp: unknown link kind %q", lc.Kind)
		}
	}

	if err := st.RouteTableLoad(cfg.Routes); err != nil {
		return fmt.Errorf("danp: load routes: %w", err)
	}

	if mux != nil {
		go func() {
			if err := http.ListenAndServe(":8765", mux); err != nil && err != http.ErrServerClosed {
				log.Error("websocket listener stopped", "err", err)
			}
		}()
	}

	log.Info("danpd serving", "node", cfg.Node)

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	<-sigchan

	log.Info("danpd shutting down")
	return nil
}
