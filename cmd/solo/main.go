// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

// Solo runs an in-process registry ledger with a REST surface, for
// development and testing. Every submitted transaction authors one
// block immediately; there is no consensus and no peers.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/handlers"
	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/radicle-dev/radicle-registry/api"
	"github.com/radicle-dev/radicle-registry/co"
	"github.com/radicle-dev/radicle-registry/emulator"
	"github.com/radicle-dev/radicle-registry/genesis"
	"github.com/radicle-dev/radicle-registry/lvldb"
	"github.com/radicle-dev/radicle-registry/registry"
)

var (
	version   string
	gitCommit string
	release   = "dev"
	log       = log15.New()
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-commit%s", release, version, gitCommit)
	app.Name = "Solo"
	app.Usage = "Radicle Registry ledger for test & dev"
	app.Copyright = "2020 The Radicle Registry developers"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "addr",
			Value: ":7777",
			Usage: "listen address",
		},
		cli.StringFlag{
			Name:  "data-dir",
			Usage: "directory for the ledger database (in-memory when empty)",
		},
		cli.StringFlag{
			Name:  "allowed-origins",
			Value: "*",
			Usage: "comma separated CORS origins",
		},
		cli.BoolFlag{
			Name:  "api-logs",
			Usage: "log every api request",
		},
		cli.IntFlag{
			Name:  "verbosity",
			Value: int(log15.LvlInfo),
			Usage: "log verbosity (0-9)",
		},
	}
	app.Action = run
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	initLog(log15.Lvl(ctx.Int("verbosity")))

	addr, err := net.ResolveTCPAddr("tcp", ctx.String("addr"))
	if err != nil {
		return errors.New("bad argument: listen address")
	}
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "creating TCP server")
	}

	db, err := openDB(ctx.String("data-dir"))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer db.Close()

	gen, err := genesis.NewDevnet()
	if err != nil {
		return errors.Wrap(err, "building genesis")
	}
	ledger, err := emulator.New(db, gen)
	if err != nil {
		return errors.Wrap(err, "bootstrapping ledger")
	}

	log.Info("solo has been set up", "genesis", gen.ID(), "sudo", gen.Sudo())
	for _, acc := range genesis.DevAccounts() {
		log.Info("dev account",
			"address", acc.Address,
			"private key", registry.BytesToHash(crypto.FromECDSA(acc.PrivateKey)),
			"balance", genesis.DevBalance,
		)
	}

	var handler http.Handler = api.New(ledger, ledger.Chain(), ctx.String("allowed-origins"))
	if ctx.Bool("api-logs") {
		handler = handlers.CombinedLoggingHandler(os.Stdout, handler)
	}
	svr := &http.Server{Handler: handler}
	defer svr.Shutdown(context.Background())

	var goes co.Goes
	defer goes.Wait()

	goes.Go(func() {
		log.Info("serving api", "addr", addr)
		_ = svr.Serve(listener)
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	<-quit
	log.Info("got interrupt, shutting down...")
	return nil
}

func openDB(dataDir string) (*lvldb.LevelDB, error) {
	if dataDir == "" {
		log.Info("using in-memory database")
		return lvldb.NewMem()
	}
	log.Info("using leveldb database", "dir", dataDir)
	return lvldb.New(dataDir, lvldb.Options{})
}

func initLog(lvl log15.Lvl) {
	initHandler := log15.LvlFilterHandler(lvl, log15.StderrHandler)
	log15.Root().SetHandler(initHandler)
}
