// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/memaxo/zephyr/admin"
	"github.com/memaxo/zephyr/cmd/zephyr/solo"
	"github.com/memaxo/zephyr/co"
	"github.com/memaxo/zephyr/genesis"
	"github.com/memaxo/zephyr/health"
	"github.com/memaxo/zephyr/log"
	"github.com/memaxo/zephyr/logdb"
	"github.com/memaxo/zephyr/lvldb"
	"github.com/memaxo/zephyr/metrics"
	"github.com/memaxo/zephyr/packer"
	"github.com/memaxo/zephyr/zephyr"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Zephyr",
		Usage:     "Node of Zephyr Network",
		Copyright: "2024 The Zephyr developers",
		Flags: []cli.Flag{
			networkFlag,
			configDirFlag,
			dataDirFlag,
			configFlag,
			keyFlag,
			cacheFlag,
			difficultyFlag,
			pruneBlocksFlag,
			txPoolLimitFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "client runs in solo mode for test & dev",
				Flags: []cli.Flag{
					dataDirFlag,
					configFlag,
					cacheFlag,
					difficultyFlag,
					pruneBlocksFlag,
					txPoolLimitFlag,
					onDemandFlag,
					persistFlag,
					blockIntervalFlag,
					verbosityFlag,
					jsonLogsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
					adminAddrFlag,
				},
				Action: soloAction,
			},
			{
				Name:  "validate",
				Usage: "replay the stored chain through full validation and report the first divergence",
				Flags: []cli.Flag{
					networkFlag,
					dataDirFlag,
					configFlag,
					cacheFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: validateAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	lvl, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		fatal("parse verbosity flag:", err)
	}
	logLevel := initLogger(lvl, ctx.Bool(jsonLogsFlag.Name))

	if configPath := ctx.String(configFlag.Name); configPath != "" {
		if err := applyConfigFile(configPath); err != nil {
			fatal("apply config file:", err)
		}
	}

	gene := selectGenesis(ctx)
	zephyr.LockConfig()

	instanceDir := makeInstanceDir(ctx, gene)

	mainDB := openMainDB(ctx, instanceDir)
	defer func() { log.Info("closing main database..."); mainDB.Close() }()

	logDB := openLogDB(instanceDir)
	defer func() { log.Info("closing log database..."); logDB.Close() }()

	c, engine, ledger := initChain(gene, mainDB)
	master := loadNodeMaster(ctx)

	healthTracker := health.New(2 * time.Duration(zephyr.BlockInterval()) * time.Second)
	healthTracker.BootstrapStatus(true)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			fatal("unable to start metrics server:", err)
		}
		log.Info("metrics server started", "url", url)
		defer closeFunc()
	}

	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, healthTracker)
		if err != nil {
			fatal("unable to start admin server:", err)
		}
		log.Info("admin server started", "url", url)
		defer closeFunc()
	}

	poolLimit, err := readIntFromUInt64Flag(ctx.Uint64(txPoolLimitFlag.Name))
	if err != nil {
		fatal("parse txpool-limit flag:", err)
	}
	pruneBlocks, err := readIntFromUInt64Flag(ctx.Uint64(pruneBlocksFlag.Name))
	if err != nil {
		fatal("parse prune-blocks flag:", err)
	}

	pool := solo.NewTxPool(c, gene.ChainTag(), poolLimit)
	pk := packer.New(c, engine, master.Address(), packer.Options{
		Stake:      ledger,
		Tag:        gene.ChainTag(),
		Difficulty: ctx.Uint64(difficultyFlag.Name),
	})

	soloEngine := solo.New(c, pk, pool, logDB, master, healthTracker, solo.Options{
		PruneBlocks: pruneBlocks,
	})

	printStartupMessage(gene, c, master, instanceDir)

	exitCtx := handleExitSignal()
	var goes co.Goes
	goes.Go(func() { houseKeeping(exitCtx, c) })
	defer goes.Wait()

	return soloEngine.Run(exitCtx)
}

func soloAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	lvl, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		fatal("parse verbosity flag:", err)
	}
	logLevel := initLogger(lvl, ctx.Bool(jsonLogsFlag.Name))

	if configPath := ctx.String(configFlag.Name); configPath != "" {
		if err := applyConfigFile(configPath); err != nil {
			fatal("apply config file:", err)
		}
	}
	if interval := ctx.Uint64(blockIntervalFlag.Name); interval != 0 {
		zephyr.SetConfig(zephyr.Config{BlockInterval: interval})
		log.Info("block interval set", "interval", interval)
	}

	gene := genesis.NewDevnet()
	zephyr.LockConfig()

	var mainDB *lvldb.LevelDB
	var logDB *logdb.LogDB
	var instanceDir string

	if ctx.Bool(persistFlag.Name) {
		instanceDir = makeInstanceDir(ctx, gene)
		mainDB = openMainDB(ctx, instanceDir)
		logDB = openLogDB(instanceDir)
	} else {
		instanceDir = "Memory"
		mainDB = openMemMainDB()
		logDB = openMemLogDB()
	}

	defer func() { log.Info("closing main database..."); mainDB.Close() }()
	defer func() { log.Info("closing log database..."); logDB.Close() }()

	c, engine, ledger := initChain(gene, mainDB)

	// the seeded validator is the only scheduled proposer on a devnet
	master := &solo.Master{PrivateKey: genesis.DevAccounts()[0].PrivateKey}

	healthTracker := health.NewSolo(2 * time.Duration(zephyr.BlockInterval()) * time.Second)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			fatal("unable to start metrics server:", err)
		}
		log.Info("metrics server started", "url", url)
		defer closeFunc()
	}

	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, healthTracker)
		if err != nil {
			fatal("unable to start admin server:", err)
		}
		log.Info("admin server started", "url", url)
		defer closeFunc()
	}

	poolLimit, err := readIntFromUInt64Flag(ctx.Uint64(txPoolLimitFlag.Name))
	if err != nil {
		fatal("parse txpool-limit flag:", err)
	}
	pruneBlocks, err := readIntFromUInt64Flag(ctx.Uint64(pruneBlocksFlag.Name))
	if err != nil {
		fatal("parse prune-blocks flag:", err)
	}

	pool := solo.NewTxPool(c, gene.ChainTag(), poolLimit)
	pk := packer.New(c, engine, master.Address(), packer.Options{
		Stake:      ledger,
		Tag:        gene.ChainTag(),
		Difficulty: ctx.Uint64(difficultyFlag.Name),
	})

	soloEngine := solo.New(c, pk, pool, logDB, master, healthTracker, solo.Options{
		OnDemand:    ctx.Bool(onDemandFlag.Name),
		PruneBlocks: pruneBlocks,
	})

	printSoloStartupMessage(gene, c, instanceDir)

	exitCtx := handleExitSignal()
	var goes co.Goes
	goes.Go(func() { houseKeeping(exitCtx, c) })
	defer goes.Wait()

	return soloEngine.Run(exitCtx)
}
