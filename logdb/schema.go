// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// create a table for transfers
const transferTableSchema = `
create table if not exists transfer (
	blockHash blob(32),
	transferIndex integer,
	blockHeight integer,
	blockTime integer,
	txHash blob(32),
	sender blob(20),
	recipient blob(20),
	amount blob(32)
);

CREATE UNIQUE INDEX if not exists transferKey on transfer(blockHash, transferIndex);
CREATE INDEX if not exists transferHeightIndex on transfer(blockHeight);
CREATE INDEX if not exists transferSenderIndex on transfer(sender);
CREATE INDEX if not exists transferRecipientIndex on transfer(recipient);
`
