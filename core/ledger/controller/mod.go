// Package controller implements the initializer of the ledger. It opens the
// database, loads the key of the user and injects the ledger with its
// execution service so that the contract controllers can register their
// contracts.
package controller

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/heirloom"
	"go.dedis.ch/heirloom/cli"
	"go.dedis.ch/heirloom/cli/node"
	"go.dedis.ch/heirloom/core/clock"
	"go.dedis.ch/heirloom/core/events"
	"go.dedis.ch/heirloom/core/execution/native"
	"go.dedis.ch/heirloom/core/ledger"
	"go.dedis.ch/heirloom/core/store/kv"
	"go.dedis.ch/heirloom/core/txn/signed"
	"go.dedis.ch/heirloom/crypto/ed25519"
	"go.dedis.ch/heirloom/crypto/loader"
	"golang.org/x/xerrors"
)

// controller is the initializer of the ledger.
//
// - implements node.Initializer
type controller struct {
	openDB       func(path string) (kv.DB, error)
	newLoader    func(path string) loader.Loader
	writeMetrics func(path string, g prometheus.Gatherer) error
}

// NewController returns the initializer of the ledger. It must come before the
// initializers of the contracts.
func NewController() node.Initializer {
	return controller{
		openDB:       kv.New,
		newLoader:    loader.NewFileLoader,
		writeMetrics: prometheus.WriteToTextfile,
	}
}

// SetCommands implements node.Initializer. It sets the commands to inspect the
// ledger.
func (c controller) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("ledger")
	cmd.SetDescription("inspect the ledger")

	sub := cmd.SetSubCommand("events")
	sub.SetDescription("list the events of the committed transactions")
	sub.SetAction(builder.MakeAction(eventsAction{}))

	sub = cmd.SetSubCommand("time")
	sub.SetDescription("print the current time of the ledger")
	sub.SetAction(builder.MakeAction(timeAction{}))

	sub = cmd.SetSubCommand("whoami")
	sub.SetDescription("print the identity of the user and its next nonce")
	sub.SetAction(builder.MakeAction(whoamiAction{}))
}

// OnStart implements node.Initializer. It opens the database and injects the
// ledger, its execution service, the journal of events and a transaction
// manager signing with the key of the user.
func (c controller) OnStart(flags cli.Flags, inj node.Injector) error {
	var cfg node.Config
	err := inj.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("failed to resolve config: %v", err)
	}

	for _, path := range []string{cfg.Key, cfg.DB} {
		err = os.MkdirAll(filepath.Dir(path), 0700)
		if err != nil {
			return xerrors.Errorf("failed to create folder: %v", err)
		}
	}

	data, err := c.newLoader(cfg.Key).LoadOrCreate(generator{})
	if err != nil {
		return xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return xerrors.Errorf("failed to unmarshal signer: %v", err)
	}

	db, err := c.openDB(cfg.DB)
	if err != nil {
		return xerrors.Errorf("failed to open database: %v", err)
	}

	exec := native.NewExecution()
	journal := events.NewJournal()

	sink := events.Multi{
		events.NewLogPublisher(heirloom.Logger),
		events.NewMetrics(),
	}

	l := ledger.NewLedger(db, exec,
		ledger.WithClock(clock.Offset(clock.System{}, cfg.ClockOffset)),
		ledger.WithJournal(journal),
		ledger.WithSink(sink))

	inj.Inject(db)
	inj.Inject(exec)
	inj.Inject(journal)
	inj.Inject(l)
	inj.Inject(signer)
	inj.Inject(signed.NewManager(signer, l))

	return nil
}

// OnStop implements node.Initializer. It writes the metrics if requested and
// closes the database.
func (c controller) OnStop(inj node.Injector) error {
	var cfg node.Config
	err := inj.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("failed to resolve config: %v", err)
	}

	if cfg.Metrics != "" {
		registry := prometheus.NewRegistry()

		err = registry.Register(prometheus.NewGoCollector())
		if err != nil {
			return xerrors.Errorf("failed to register collector: %v", err)
		}

		for _, collector := range heirloom.PromCollectors {
			err = registry.Register(collector)
			if err != nil {
				return xerrors.Errorf("failed to register collector: %v", err)
			}
		}

		err = c.writeMetrics(cfg.Metrics, registry)
		if err != nil {
			return xerrors.Errorf("failed to write metrics: %v", err)
		}
	}

	var db kv.DB
	err = inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("failed to resolve db: %v", err)
	}

	err = db.Close()
	if err != nil {
		return xerrors.Errorf("failed to close db: %v", err)
	}

	return nil
}

// generator generates the private key of a new user.
//
// - implements loader.Generator
type generator struct{}

// Generate implements loader.Generator.
func (generator) Generate() ([]byte, error) {
	return ed25519.NewSigner().MarshalBinary()
}
