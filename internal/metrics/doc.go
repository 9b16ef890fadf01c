// Package metrics exposes projection outcomes as Prometheus metrics.
package metrics
