// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"runtime"
)

// Enqueue submits one unit of work to the pool.
type Enqueue func(work func())

// Parallel fans the work cb submits out over one worker per CPU and
// returns once every submitted unit has finished.
func Parallel(cb func(Enqueue)) {
	var goes Goes
	defer goes.Wait()

	ch := make(chan func(), runtime.NumCPU()*2)
	defer close(ch)

	for i := 0; i < runtime.NumCPU(); i++ {
		goes.Go(func() {
			for work := range ch {
				work()
			}
		})
	}
	cb(func(work func()) { ch <- work })
}
