package server

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	nats "github.com/nats-io/nats.go"
	"github.com/nsyszr/toybroker/config"
	"github.com/nsyszr/toybroker/pkg/authority"
	"github.com/nsyszr/toybroker/pkg/client/httpclient"
	"github.com/nsyszr/toybroker/pkg/controller"
	"github.com/nsyszr/toybroker/pkg/events"
	"github.com/nsyszr/toybroker/pkg/router"
	"github.com/nsyszr/toybroker/pkg/storage"
	"github.com/nsyszr/toybroker/pkg/storage/memory"
	"github.com/nsyszr/toybroker/pkg/storage/postgres"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Broker wires the storage, the vendor clients and the router into a
// controller. It is shared by the server and the CLI.
type Broker struct {
	cfg *config.Config

	nc  *nats.Conn
	db  *sqlx.DB
	mem *memory.Store

	store  storage.Interface
	tokens *authority.Client
	router *router.Router
	events events.Publisher
	ctrl   *controller.Controller
}

// NewBroker creates all components from the configuration. Errors are
// configuration problems the process cannot recover from.
func NewBroker(c *config.Config) (*Broker, error) {
	mode, err := router.ParseMode(c.RouterMode)
	if err != nil {
		return nil, err
	}
	scope, err := authority.ParseScope(c.TokenScope)
	if err != nil {
		return nil, err
	}

	b := &Broker{cfg: c, events: events.Noop()}

	if err := b.openStore(); err != nil {
		return nil, err
	}

	if c.NATSServerURL != "" {
		nc, err := nats.Connect(c.NATSServerURL,
			nats.Name("toybroker"),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Warn("Disconnected from NATS: ", err)
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.WithField("url", nc.ConnectedUrl()).Info("Reconnected to NATS")
			}))
		if err != nil {
			b.Close()
			return nil, errors.Wrap(err, "failed to connect to NATS")
		}
		b.nc = nc
		b.events = events.NewNATSPublisher(nc)
	}

	hc := httpclient.New()

	b.tokens = authority.NewClient(authority.Config{
		DeveloperToken: c.DeveloperToken,
		APIBaseURL:     c.APIBaseURL,
		CallbackURL:    c.CallbackURL,
		Timeout:        c.RelayTimeout,
		Scope:          scope,
	}, hc)

	b.router, err = router.New(router.Options{
		Mode:          mode,
		APIBaseURL:    c.APIBaseURL,
		LocalAddress:  c.GameModeIP,
		LocalPort:     c.GameModePort,
		DirectTimeout: c.DirectTimeout,
		RelayTimeout:  c.RelayTimeout,
		StrictDirect:  c.DirectStrict,
	}, b.store.Sessions(), b.tokens, hc)
	if err != nil {
		b.Close()
		return nil, err
	}

	b.ctrl = controller.New(c.DefaultUID, b.router, b.store.Sessions(), b.tokens, b.events)

	return b, nil
}

func (b *Broker) openStore() error {
	eviction := storage.TTL(b.cfg.SessionTTL)

	if b.cfg.Storage == "" {
		b.cfg.Storage = "memory"
	}

	switch b.cfg.Storage {
	case "memory":
		b.mem = memory.NewStore(eviction)
		b.store = b.mem
	case "postgres":
		db, err := sqlx.Connect("postgres", b.cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "failed to connect to PostgreSQL")
		}
		b.db = db
		b.store = postgres.NewStore(db, eviction)
	default:
		return errors.Errorf("unknown storage %q, use memory or postgres", b.cfg.Storage)
	}
	return nil
}

// Controller returns the broker operations.
func (b *Broker) Controller() *controller.Controller {
	return b.ctrl
}

// Close releases the NATS and database connections.
func (b *Broker) Close() {
	if b.nc != nil {
		b.nc.Drain()
	}
	if b.db != nil {
		b.db.Close()
	}
}

// LogStartup reports the effective configuration without leaking secrets.
func (b *Broker) LogStartup() {
	c := b.cfg

	log.WithFields(log.Fields{
		"mode":            b.router.Mode().String(),
		"storage":         c.Storage,
		"developer_token": c.MaskedDeveloperToken(),
		"default_uid":     c.DefaultUID,
		"nats":            b.nc != nil,
	}).Info("Broker configured")

	if c.DeveloperToken == "" && b.router.Mode() != router.ModeDirect {
		log.Warn("LOVENSE_DEVELOPER_TOKEN is not set, relay commands will fail")
	}
	if c.CallbackURL == "" && b.router.Mode() != router.ModeDirect {
		log.Warn("LOVENSE_CALLBACK_URL is not set, the companion app cannot report sessions")
	}
}
