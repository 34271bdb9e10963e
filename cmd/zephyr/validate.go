package main

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/chain"
	"github.com/memaxo/zephyr/log"
	"github.com/memaxo/zephyr/logdb"
	"github.com/memaxo/zephyr/zephyr"
)

func validateAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	lvl, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		fatal("parse verbosity flag:", err)
	}
	initLogger(lvl, ctx.Bool(jsonLogsFlag.Name))

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

	c, _, _ := initChain(gene, mainDB)

	exitCtx := handleExitSignal()

	fmt.Println(">> Validating chain <<")
	if err := c.ValidateChain(exitCtx); err != nil {
		return errors.WithMessage(err, "validate chain")
	}

	if err := verifyLogDB(exitCtx, c, logDB); err != nil {
		return err
	}

	fmt.Printf(">> Chain valid, best block #%v <<\n", c.Height())
	return nil
}

// verifyLogDB rebuilds the expected transfer rows from the retained
// blocks and diffs them against what the log database actually holds.
func verifyLogDB(ctx context.Context, c *chain.Chain, logDB *logdb.LogDB) error {
	fmt.Println(">> Verifying transfer log <<")

	it := c.Iter()
	if !it.Next() {
		return nil
	}
	firstHeight := it.Block().Header().Height()
	endHeight := c.Height()
	it.Reset()

	bar := pb.New64(int64(endHeight - firstHeight + 1)).
		Set64(0).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	const logStep = uint64(100)

	var (
		trLogs      []*logdb.Transfer
		logLimit    = firstHeight
		splitTrLogs = func(hash zephyr.Bytes32) (logs []*logdb.Transfer) {
			if len(trLogs) == 0 {
				return
			}
			for i, tr := range trLogs {
				if tr.BlockHash != hash {
					if i > 0 {
						logs = trLogs[:i]
						trLogs = trLogs[i:]
					}
					return
				}
			}
			logs = trLogs
			trLogs = nil
			return
		}
	)

	for it.Next() {
		b := it.Block()
		height := b.Header().Height()

		if height >= logLimit {
			from := logLimit
			logLimit += logStep
			fetched, err := logDB.FilterTransfers(ctx, &logdb.TransferFilter{
				Range: &logdb.Range{
					Unit: logdb.Block,
					From: from,
					To:   logLimit - 1,
				},
			})
			if err != nil {
				return err
			}
			trLogs = append(trLogs, fetched...)
		}

		if err := verifyBlockTransfers(b, splitTrLogs(b.Hash())); err != nil {
			return err
		}
		bar.Add64(1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	if len(trLogs) > 0 {
		fmt.Println("\nDiff transfer logs")
		fmt.Println(jsonDiff([]*logdb.Transfer{}, trLogs))
		return errors.New("transfer log holds rows for unknown blocks")
	}

	bar.Finish()
	return nil
}

func verifyBlockTransfers(b *block.Block, transferLogs []*logdb.Transfer) error {
	header := b.Header()

	var expected []*logdb.Transfer
	for i, trx := range b.Transactions() {
		expected = append(expected, &logdb.Transfer{
			BlockHash:   header.Hash(),
			Index:       uint32(i),
			BlockHeight: header.Height(),
			BlockTime:   header.Timestamp(),
			TxHash:      trx.Hash(),
			Sender:      trx.Sender(),
			Recipient:   trx.Recipient(),
			Amount:      trx.Amount(),
		})
	}

	if !reflect.DeepEqual(transferLogs, expected) {
		fmt.Println("\nDiff transfer logs")
		fmt.Println(jsonDiff(expected, transferLogs))
		return errors.Errorf("transfer log mismatch at block #%v", header.Height())
	}
	return nil
}

func jsonDiff(expected, actual any) string {
	e, _ := json.MarshalIndent(expected, "", "  ")
	a, _ := json.MarshalIndent(actual, "", "  ")
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(e)),
		B:        difflib.SplitLines(string(a)),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	return diff
}
