package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/nsyszr/toybroker/config"
	"github.com/nsyszr/toybroker/pkg/api"
	"github.com/nsyszr/toybroker/pkg/devicecontrol"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const sweepInterval = time.Minute

type brokerServer struct {
	cfg    *config.Config
	broker *Broker

	quitCh chan bool
	doneCh chan bool
}

func newBrokerServer(c *config.Config) (*brokerServer, error) {
	b, err := NewBroker(c)
	if err != nil {
		return nil, err
	}

	return &brokerServer{
		cfg:    c,
		broker: b,
		quitCh: make(chan bool),
		doneCh: make(chan bool),
	}, nil
}

func (s *brokerServer) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger())

	// Register API endpoints
	apiHandler := api.NewHandler(s.broker.nc, s.broker.Controller())
	apiHandler.RegisterRoutes(e)

	// Register the vendor callback endpoint
	callbackHandler := devicecontrol.NewHandler(s.broker.store.Sessions(), s.broker.events, s.cfg.DefaultUID)
	callbackHandler.RegisterRoutes(e)

	return e
}

func (s *brokerServer) Serve() {
	e := s.newEcho()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if s.broker.mem != nil && s.cfg.SessionTTL > 0 {
		go s.broker.mem.RunSweeper(ctx, sweepInterval)
	}

	s.broker.LogStartup()

	go func() {
		log.WithFields(log.Fields{
			"host": s.cfg.BindHost,
			"port": s.cfg.BindPort,
		}).Info("Starting server")

		if err := e.Start(fmt.Sprintf("%s:%d", s.cfg.BindHost, s.cfg.BindPort)); err != nil {
			log.Info("Shutting down the server: ", err)
		}
	}()

	// Wait until receiving the quit signal
	<-s.quitCh
	log.Info("Shutdown signal received")

	// Create a 10 second timeout context
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown the echo web server
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error(err)
	}

	// We've done!
	s.doneCh <- true
}

func (s *brokerServer) Shutdown() {
	// Send the quit signal to the Serve() routine
	s.quitCh <- true

	// Wait up to 10 seconds
	select {
	case <-s.doneCh:
		log.Info("Shutdown server successful")
	case <-time.After(10 * time.Second):
		log.Error("Shutdown server failed")
	}

	s.broker.Close()
}

// RunServeBroker starts the gateway and callback server.
func RunServeBroker(c *config.Config) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		s, err := newBrokerServer(c)
		if err != nil {
			log.Error("failed to create new server instance: ", err)
			os.Exit(1)
		}

		go s.Serve()

		// Wait for interrupt signal to gracefully shutdown the server
		quitCh := make(chan os.Signal, 1)
		signal.Notify(quitCh, os.Interrupt, syscall.SIGTERM)
		<-quitCh

		// Shutdown the server
		s.Shutdown()
	}
}
