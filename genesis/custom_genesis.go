// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/memaxo/zephyr/zephyr"
)

// CustomGenesis is user customized genesis
type CustomGenesis struct {
	Name       string         `json:"name" yaml:"name"`
	LaunchTime uint64         `json:"launchTime" yaml:"launchTime"`
	Accounts   []Account      `json:"accounts" yaml:"accounts"`
	Validators []Validator    `json:"validators" yaml:"validators"`
	Config     *zephyr.Config `json:"config" yaml:"config"`
}

// Account is the account will set to the genesis block
type Account struct {
	Address zephyr.Address `json:"address" yaml:"address"`
	Balance *uint256.Int   `json:"balance" yaml:"balance"`
}

// Validator is the initial validator info
type Validator struct {
	Address zephyr.Address `json:"address" yaml:"address"`
	Stake   *uint256.Int   `json:"stake" yaml:"stake"`
}

// LoadCustomGenesis parses the genesis spec file at path and builds the
// network from it. YAML is detected by extension, anything else is read
// as JSON.
func LoadCustomGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}

	var gen CustomGenesis
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &gen)
	default:
		err = json.Unmarshal(data, &gen)
	}
	if err != nil {
		return nil, errors.Wrap(err, "parse genesis file")
	}
	return NewCustomNet(&gen)
}

// NewCustomNet create custom network genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	if gen.LaunchTime == 0 {
		return nil, errors.New("launchTime must be set")
	}
	if len(gen.Accounts) == 0 {
		return nil, errors.New("accounts must not be empty")
	}
	if gen.Config != nil {
		zephyr.SetConfig(*gen.Config)
	}

	builder := new(Builder).Timestamp(gen.LaunchTime)
	for _, a := range gen.Accounts {
		if a.Balance == nil || a.Balance.IsZero() {
			return nil, errors.Errorf("%v: balance must be a non-zero integer", a.Address)
		}
		builder.Alloc(a.Address, a.Balance)
	}
	for _, v := range gen.Validators {
		if v.Stake == nil || v.Stake.IsZero() {
			return nil, errors.Errorf("validator %v: stake must be a non-zero integer", v.Address)
		}
		builder.Validator(v.Address, v.Stake)
	}

	name := gen.Name
	if name == "" {
		name = "custom"
	}
	id, err := builder.ComputeID()
	if err != nil {
		return nil, err
	}
	return &Genesis{builder, id, name}, nil
}
