// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/memaxo/zephyr/log"
	"github.com/memaxo/zephyr/zephyr"
)

// applyConfigFile loads protocol parameter overrides from the YAML file
// named by -config. Keys live under "protocol"; unset keys keep their
// defaults. Node-level settings (dirs, addresses) stay on flags.
func applyConfigFile(path string) error {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return errors.Wrap(err, "read config file")
	}

	zephyr.SetConfig(zephyr.Config{
		BlockInterval:       viper.GetUint64("protocol.blockInterval"),
		TimestampWindow:     viper.GetUint64("protocol.timestampWindow"),
		TxValidityThreshold: viper.GetFloat64("protocol.txValidityThreshold"),

		MaxBlockTxs:    viper.GetInt("protocol.maxBlockTxs"),
		MaxPayloadSize: viper.GetInt("protocol.maxPayloadSize"),

		InitialBlockReward:     viper.GetUint64("protocol.initialBlockReward"),
		RewardDecayInterval:    viper.GetUint32("protocol.rewardDecayInterval"),
		RewardDecayNumerator:   viper.GetUint64("protocol.rewardDecayNumerator"),
		RewardDecayDenominator: viper.GetUint64("protocol.rewardDecayDenominator"),

		MinValidatorStake:  viper.GetUint64("protocol.minValidatorStake"),
		MinDelegationStake: viper.GetUint64("protocol.minDelegationStake"),
		CooldownPeriod:     viper.GetUint32("protocol.cooldownPeriod"),
		MaxValidatorSlots:  viper.GetInt("protocol.maxValidatorSlots"),
	})

	log.Info("protocol config applied", "file", viper.ConfigFileUsed())
	return nil
}
