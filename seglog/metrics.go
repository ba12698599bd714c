// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package seglog

import (
	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seglog"

type metrics struct {
	appendLatency metric.Averager

	appends        prometheus.Counter
	appendedBytes  prometheus.Counter
	reads          prometheus.Counter
	rotations      prometheus.Counter
	truncations    prometheus.Counter
	expiredRecords prometheus.Counter

	segments           prometheus.Gauge
	cachedReadSegments prometheus.Gauge
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	appendLatency, err := metric.NewAverager(
		namespace+"_append_latency",
		"time spent appending records",
		r,
	)
	if err != nil {
		return nil, err
	}
	m := &metrics{
		appendLatency: appendLatency,
		appends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appends",
			Help:      "number of appended records",
		}),
		appendedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appended_bytes",
			Help:      "number of store bytes written by appends",
		}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reads",
			Help:      "number of records read",
		}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotations",
			Help:      "number of write segment rotations",
		}),
		truncations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truncations",
			Help:      "number of truncations that discarded records",
		}),
		expiredRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_records",
			Help:      "number of records removed by expiry",
		}),
		segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "segments",
			Help:      "number of open segments",
		}),
		cachedReadSegments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_read_segments",
			Help:      "number of read segments with a cached index",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.appends),
		r.Register(m.appendedBytes),
		r.Register(m.reads),
		r.Register(m.rotations),
		r.Register(m.truncations),
		r.Register(m.expiredRecords),
		r.Register(m.segments),
		r.Register(m.cachedReadSegments),
	)
	return m, errs.Err
}
