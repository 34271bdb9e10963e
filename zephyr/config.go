// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package zephyr

// Config is the configurable parameters of the chain. Most of the parameters have default
// values and will be 'locked' for production networks. For testing purposes or custom
// networks, the parameters can be updated before the node starts.

var (
	blockInterval       uint64  = 5   // seconds between two consecutive blocks
	timestampWindow     uint64  = 30  // seconds a proposed block timestamp may lead wall clock
	txValidityThreshold float64 = 1.0 // minimal fraction of individually valid txs for a block to be accepted

	maxBlockTxs    = 500
	maxPayloadSize = 16 * 1024

	// reward parameters, amounts in base units
	initialBlockReward     uint64 = 50
	rewardDecayInterval    uint32 = 10000 // blocks per reward era
	rewardDecayNumerator   uint64 = 1
	rewardDecayDenominator uint64 = 2

	// staking parameters, amounts in base units
	minValidatorStake  uint64 = 1000
	minDelegationStake uint64 = 10
	cooldownPeriod     uint32 = 8640 // blocks an unstaked amount stays pending before withdrawal
	maxValidatorSlots         = 101  // bound of the ranked leader group

	locked bool
)

type Config struct {
	BlockInterval       uint64  `json:"blockInterval" yaml:"blockInterval"`
	TimestampWindow     uint64  `json:"timestampWindow" yaml:"timestampWindow"`
	TxValidityThreshold float64 `json:"txValidityThreshold" yaml:"txValidityThreshold"` // in (0, 1]

	MaxBlockTxs    int `json:"maxBlockTxs" yaml:"maxBlockTxs"`
	MaxPayloadSize int `json:"maxPayloadSize" yaml:"maxPayloadSize"`

	InitialBlockReward     uint64 `json:"initialBlockReward" yaml:"initialBlockReward"`
	RewardDecayInterval    uint32 `json:"rewardDecayInterval" yaml:"rewardDecayInterval"`
	RewardDecayNumerator   uint64 `json:"rewardDecayNumerator" yaml:"rewardDecayNumerator"`
	RewardDecayDenominator uint64 `json:"rewardDecayDenominator" yaml:"rewardDecayDenominator"`

	MinValidatorStake  uint64 `json:"minValidatorStake" yaml:"minValidatorStake"`
	MinDelegationStake uint64 `json:"minDelegationStake" yaml:"minDelegationStake"`
	CooldownPeriod     uint32 `json:"cooldownPeriod" yaml:"cooldownPeriod"`
	MaxValidatorSlots  int    `json:"maxValidatorSlots" yaml:"maxValidatorSlots"`
}

// SetConfig sets the config.
// Zero valued fields are skipped, keeping the defaults.
// If the config is locked, will panic.
func SetConfig(cfg Config) {
	if locked {
		panic("config is locked, cannot be set")
	}

	if cfg.BlockInterval != 0 {
		blockInterval = cfg.BlockInterval
	}

	if cfg.TimestampWindow != 0 {
		timestampWindow = cfg.TimestampWindow
	}

	if cfg.TxValidityThreshold != 0 {
		if cfg.TxValidityThreshold < 0 || cfg.TxValidityThreshold > 1 {
			panic("tx validity threshold out of (0, 1]")
		}
		txValidityThreshold = cfg.TxValidityThreshold
	}

	if cfg.MaxBlockTxs != 0 {
		maxBlockTxs = cfg.MaxBlockTxs
	}

	if cfg.MaxPayloadSize != 0 {
		maxPayloadSize = cfg.MaxPayloadSize
	}

	if cfg.InitialBlockReward != 0 {
		initialBlockReward = cfg.InitialBlockReward
	}

	if cfg.RewardDecayInterval != 0 {
		rewardDecayInterval = cfg.RewardDecayInterval
	}

	if cfg.RewardDecayNumerator != 0 {
		rewardDecayNumerator = cfg.RewardDecayNumerator
	}

	if cfg.RewardDecayDenominator != 0 {
		rewardDecayDenominator = cfg.RewardDecayDenominator
	}

	if cfg.MinValidatorStake != 0 {
		minValidatorStake = cfg.MinValidatorStake
	}

	if cfg.MinDelegationStake != 0 {
		minDelegationStake = cfg.MinDelegationStake
	}

	if cfg.CooldownPeriod != 0 {
		cooldownPeriod = cfg.CooldownPeriod
	}

	if cfg.MaxValidatorSlots != 0 {
		maxValidatorSlots = cfg.MaxValidatorSlots
	}
}

// LockConfig locks the config, preventing any further changes.
// Required for production networks.
func LockConfig() {
	locked = true
}

func BlockInterval() uint64 {
	return blockInterval
}

func TimestampWindow() uint64 {
	return timestampWindow
}

func TxValidityThreshold() float64 {
	return txValidityThreshold
}

func MaxBlockTxs() int {
	return maxBlockTxs
}

func MaxPayloadSize() int {
	return maxPayloadSize
}

func InitialBlockReward() uint64 {
	return initialBlockReward
}

func RewardDecayInterval() uint32 {
	return rewardDecayInterval
}

func RewardDecayNumerator() uint64 {
	return rewardDecayNumerator
}

func RewardDecayDenominator() uint64 {
	return rewardDecayDenominator
}

func MinValidatorStake() uint64 {
	return minValidatorStake
}

func MinDelegationStake() uint64 {
	return minDelegationStake
}

func CooldownPeriod() uint32 {
	return cooldownPeriod
}

func MaxValidatorSlots() int {
	return maxValidatorSlots
}
