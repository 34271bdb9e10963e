// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

// noopMetrics discards every measurement.
type noopMetrics struct{}

func defaultNoopMetrics() Backend { return &noopMetrics{} }

func (*noopMetrics) Count(string) CountMeter { return &noopMeter }

func (*noopMetrics) CountVec(string, []string) CountVecMeter { return &noopMeter }

func (*noopMetrics) Gauge(string) GaugeMeter { return &noopMeter }

func (*noopMetrics) GaugeVec(string, []string) GaugeVecMeter { return &noopMeter }

func (*noopMetrics) Histogram(string, []int64) HistogramMeter { return &noopMeter }

func (*noopMetrics) HistogramVec(string, []string, []int64) HistogramVecMeter {
	return &noopMeter
}

func (*noopMetrics) Handler() http.Handler { return nil }

var noopMeter = noopMeters{}

type noopMeters struct{}

func (noopMeters) Add(int64) {}

func (noopMeters) AddWithLabel(int64, map[string]string) {}

func (noopMeters) Set(int64) {}

func (noopMeters) SetWithLabel(int64, map[string]string) {}

func (noopMeters) Observe(int64) {}

func (noopMeters) ObserveWithLabels(int64, map[string]string) {}
