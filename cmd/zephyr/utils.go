// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	goruntime "runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/chain"
	"github.com/memaxo/zephyr/cmd/zephyr/solo"
	"github.com/memaxo/zephyr/consensus"
	"github.com/memaxo/zephyr/genesis"
	"github.com/memaxo/zephyr/log"
	"github.com/memaxo/zephyr/logdb"
	"github.com/memaxo/zephyr/lvldb"
	"github.com/memaxo/zephyr/runtime"
	"github.com/memaxo/zephyr/staking"
	"github.com/memaxo/zephyr/state"
	"github.com/memaxo/zephyr/zephyr"
)

func fatal(args ...any) {
	var w io.Writer
	if goruntime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(lvl int, jsonLogs bool) *slog.LevelVar {
	logLevel := log.FromLegacyLevel(lvl)
	var level slog.LevelVar
	level.Set(logLevel)

	output := io.Writer(os.Stdout)
	useColor := isatty.IsTerminal(os.Stdout.Fd())

	var handler slog.Handler
	if jsonLogs {
		handler = log.JSONHandlerWithLevel(output, &level)
	} else {
		handler = log.NewTerminalHandlerWithLevel(output, &level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return &level
}

func readIntFromUInt64Flag(val uint64) (int, error) {
	converted := int(val)
	if converted < 0 {
		return 0, fmt.Errorf("invalid value %d", val)
	}
	return converted, nil
}

func handleExitSignal() context.Context {
	exitSignalCh := make(chan os.Signal, 1)
	signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func defaultConfigDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".org.zephyr.node")
	}
	return ""
}

// copy from go-ethereum
func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		switch goruntime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.zephyr.node")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.zephyr.node")
		default:
			return filepath.Join(home, ".org.zephyr.node")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func makeConfigDir(ctx *cli.Context) string {
	configDir := ctx.String(configDirFlag.Name)
	if configDir == "" {
		fatal(fmt.Sprintf("unable to infer default config dir, use -%s to specify", configDirFlag.Name))
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		fatal(fmt.Sprintf("create config dir [%v]: %v", configDir, err))
	}
	return configDir
}

func makeDataDir(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) string {
	dataDir := makeDataDir(ctx)

	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0700); err != nil {
		fatal(fmt.Sprintf("create instance dir [%v]: %v", instanceDir, err))
	}
	return instanceDir
}

func selectGenesis(ctx *cli.Context) *genesis.Genesis {
	network := ctx.String(networkFlag.Name)
	if network == "" {
		cli.ShowAppHelp(ctx)
		fmt.Println("network flag not specified")
		os.Exit(1)
	}
	if network == "dev" {
		return genesis.NewDevnet()
	}
	gene, err := genesis.LoadCustomGenesis(network)
	if err != nil {
		fatal(fmt.Sprintf("load genesis file [%v]: %v", network, err))
	}
	return gene
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 128 {
		sizeMB = 128
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		log.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			log.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		fatal("failed to get fd limit:", err)
	}
	if limit <= 1024 {
		log.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 5120 {
		return 5120
	}
	return n
}

func openMainDB(ctx *cli.Context, instanceDir string) *lvldb.LevelDB {
	cacheMB := normalizeCacheSize(int(ctx.Uint64(cacheFlag.Name)))
	log.Debug("cache size(MB)", "size", cacheMB)

	// Ensure Go's GC ignores the database cache for trigger percentage
	gogc := math.Max(20, math.Min(100, 100/(float64(cacheMB)/1024)))
	log.Debug("sanitize Go's GC trigger", "percent", int(gogc))
	debug.SetGCPercent(int(gogc))

	fdCache := suggestFDCache()
	log.Debug("fd cache", "n", fdCache)

	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: fdCache,
	})
	if err != nil {
		fatal(fmt.Sprintf("open chain database [%v]: %v", dir, err))
	}
	return db
}

func openLogDB(instanceDir string) *logdb.LogDB {
	dir := filepath.Join(instanceDir, "logs.db")
	db, err := logdb.New(dir)
	if err != nil {
		fatal(fmt.Sprintf("open log database [%v]: %v", dir, err))
	}
	return db
}

func openMemMainDB() *lvldb.LevelDB {
	db, err := lvldb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open chain database: %v", err))
	}
	return db
}

func openMemLogDB() *logdb.LogDB {
	db, err := logdb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open log database: %v", err))
	}
	return db
}

// initChain boots the state, staking book and gated chain over the open
// store. A fresh store gets the genesis allocations; a used one reloads
// its snapshot and re-checks it against the genesis identity.
func initChain(gene *genesis.Genesis, mainDB *lvldb.LevelDB) (*chain.Chain, *runtime.Runtime, *staking.Ledger) {
	st, found, err := chain.RestoreState(mainDB)
	if err != nil {
		fatal("restore state:", err)
	}

	var genesisBlock *block.Block
	if found {
		if genesisBlock, err = gene.Block(); err != nil {
			fatal("build genesis block:", err)
		}
	} else {
		st = state.New(mainDB)
		if genesisBlock, err = gene.Build(mainDB, st); err != nil {
			fatal("build genesis block:", err)
		}
	}

	engine := runtime.New(st)
	ledger, err := staking.NewLedger(mainDB, engine)
	if err != nil {
		fatal("open staking ledger:", err)
	}

	gate := consensus.New(engine, consensus.Options{Stake: ledger, Tag: gene.ChainTag()})
	c, err := chain.New(mainDB, st, genesisBlock, chain.Options{Gate: gate, Stake: ledger})
	if err != nil {
		fatal("initialize block chain:", err)
	}
	return c, engine, ledger
}

func masterKeyPath(ctx *cli.Context) string {
	return filepath.Join(makeConfigDir(ctx), "master.key")
}

func loadOrGeneratePrivateKey(path string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.LoadECDSA(path)
	if err == nil {
		return key, nil
	}

	if !os.IsNotExist(err) {
		return nil, err
	}

	key, err = crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	if err := crypto.SaveECDSA(path, key); err != nil {
		return nil, err
	}
	return key, nil
}

// loadNodeMaster resolves the proposer key: -key beats everything, dev
// networks run as the seeded validator, anything else loads or creates
// the master key file.
func loadNodeMaster(ctx *cli.Context) *solo.Master {
	if keyHex := ctx.String(keyFlag.Name); keyHex != "" {
		key, err := crypto.HexToECDSA(keyHex)
		if err != nil {
			fatal("invalid proposer key:", err)
		}
		return &solo.Master{PrivateKey: key}
	}
	if ctx.String(networkFlag.Name) == "dev" {
		return &solo.Master{PrivateKey: genesis.DevAccounts()[0].PrivateKey}
	}
	key, err := loadOrGeneratePrivateKey(masterKeyPath(ctx))
	if err != nil {
		fatal("load or generate master key:", err)
	}
	return &solo.Master{PrivateKey: key}
}

func printStartupMessage(
	gene *genesis.Genesis,
	c *chain.Chain,
	master *solo.Master,
	dataDir string,
) {
	bestBlock := c.BestBlock()

	fmt.Printf(`Starting %v
    Network      [ %v %v ]
    Best block   [ %v #%v @%v ]
    Master       [ %v ]
    Instance dir [ %v ]
`,
		fmt.Sprintf("Zephyr %v", fullVersion()),
		gene.ID(), gene.Name(),
		bestBlock.Hash(), bestBlock.Header().Height(), time.Unix(int64(bestBlock.Header().Timestamp()), 0),
		master.Address(),
		dataDir)
}

func printSoloStartupMessage(
	gene *genesis.Genesis,
	c *chain.Chain,
	dataDir string,
) {
	tableHead := `
┌────────────────────────────────────────────┬────────────────────────────────────────────────────────────────────┐
│                   Address                  │                             Private Key                            │`
	tableContent := `
├────────────────────────────────────────────┼────────────────────────────────────────────────────────────────────┤
│ %v │ %v │`
	tableEnd := `
└────────────────────────────────────────────┴────────────────────────────────────────────────────────────────────┘`

	bestBlock := c.BestBlock()

	info := fmt.Sprintf(`Starting %v
    Network     [ %v %v ]
    Best block  [ %v #%v @%v ]
    Data dir    [ %v ]`,
		fmt.Sprintf("Zephyr solo %v", fullVersion()),
		gene.ID(), gene.Name(),
		bestBlock.Hash(), bestBlock.Header().Height(), time.Unix(int64(bestBlock.Header().Timestamp()), 0),
		dataDir)

	info += tableHead

	for _, a := range genesis.DevAccounts() {
		info += fmt.Sprintf(tableContent,
			a.Address,
			zephyr.BytesToBytes32(crypto.FromECDSA(a.PrivateKey)),
		)
	}
	info += tableEnd + "\r\n"

	fmt.Print(info)
}
