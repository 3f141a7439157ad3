/*
 * cache.go, part of mdrms
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

// Package cache stores result tables so that long calculations are done only once.
//
// A Cache maps a logical name (plus, optionally, the parameters and input files of
// the calculation) to a key, using a KeyStrategy, and stores tables under that key
// in a Store. The existence of a table under a key is the only signal of a hit: with the
// default NameKey strategy, a table computed with different parameters under the same
// name will be reused.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rmera/mdrms/table"
)

// ErrNotFound is returned by stores when no table is stored under a key.
var ErrNotFound = errors.New("cache: not found")

// Store is a durable key-table map.
type Store interface {
	//Get returns the table stored under key, or an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) (*table.Table, error)
	//Put stores t under key. A reader never sees a partially stored table.
	Put(ctx context.Context, key string, t *table.Table) error
	//Delete removes the table under key, if any.
	Delete(ctx context.Context, key string) error
}

// Params describes a calculation.
type Params struct {
	//Parameters of the calculation, such as selections.
	Values map[string]string
	//Input files.
	Inputs []string
}

// KeyStrategy obtains the key for a calculation.
type KeyStrategy interface {
	Key(name string, p Params) (string, error)
}

// NameKey uses the name as the key, ignoring the parameters.
type NameKey struct{}

func (NameKey) Key(name string, _ Params) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return name, nil
}

// HashKey appends to the name a hash of the parameters and of the identity (path, size and
// modification time) of the input files, so a change in any of them gives a new key.
type HashKey struct {
	//Number of hex characters of the hash used. 0 means 16.
	Len int
}

func (H HashKey) Key(name string, p Params) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	h := sha256.New()
	keys := make([]string, 0, len(p.Values))
	for k := range p.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s\x00", k, p.Values[k])
	}
	for _, in := range p.Inputs {
		st, err := os.Stat(in)
		if err != nil {
			return "", fmt.Errorf("cache: input %s: %w", in, err)
		}
		fmt.Fprintf(h, "file=%s:%d:%d\x00", in, st.Size(), st.ModTime().UnixNano())
	}
	sum := hex.EncodeToString(h.Sum(nil))
	l := H.Len
	if l <= 0 || l > len(sum) {
		l = 16
	}
	return name + "-" + sum[:l], nil
}

// validName rejects names that can't be used as file names.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`+"\x00") {
		return fmt.Errorf("cache: invalid name %q", name)
	}
	return nil
}

// Compute produces a table.
type Compute func(ctx context.Context) (*table.Table, error)

// Cache wraps a Store with a KeyStrategy.
type Cache struct {
	Store Store
	Keys  KeyStrategy

	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// New returns a cache on s. A nil k means NameKey.
func New(s Store, k KeyStrategy) *Cache {
	if k == nil {
		k = NameKey{}
	}
	return &Cache{
		Store: s,
		Keys:  k,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdrms",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache requests, by result (hit, miss or error).",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mdrms",
			Subsystem: "cache",
			Name:      "compute_seconds",
			Help:      "Time spent computing tables on cache misses.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
	}
}

// Register registers the metrics of the cache with reg.
func (C *Cache) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{C.requests, C.duration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// GetOrCompute returns the table stored for the calculation name with parameters p, if
// there is one. Otherwise, it calls compute and stores and returns its result. The boolean
// returned is true if the table was found in the store. Nothing is stored if compute fails.
func (C *Cache) GetOrCompute(ctx context.Context, name string, p Params, compute Compute) (*table.Table, bool, error) {
	key, err := C.Keys.Key(name, p)
	if err != nil {
		C.requests.WithLabelValues("error").Inc()
		return nil, false, err
	}
	t, err := C.Store.Get(ctx, key)
	if err == nil {
		C.requests.WithLabelValues("hit").Inc()
		return t, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		C.requests.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("cache: %s: %w", key, err)
	}
	start := time.Now()
	t, err = compute(ctx)
	C.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		C.requests.WithLabelValues("error").Inc()
		return nil, false, err
	}
	if t == nil {
		C.requests.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("cache: %s: nil table computed", key)
	}
	if err := C.Store.Put(ctx, key, t); err != nil {
		C.requests.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("cache: %s: %w", key, err)
	}
	C.requests.WithLabelValues("miss").Inc()
	return t, false, nil
}

// Invalidate removes the table stored for the calculation, so the next
// GetOrCompute recomputes it.
func (C *Cache) Invalidate(ctx context.Context, name string, p Params) error {
	key, err := C.Keys.Key(name, p)
	if err != nil {
		return err
	}
	return C.Store.Delete(ctx, key)
}
