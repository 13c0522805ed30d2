// Package metrics declares the Prometheus collectors for sweeps and
// pipeline runs and adapts them to the scheduler and pipeline observer
// interfaces.
//
// Collectors register with the default registry through promauto. A
// one-shot CLI has nothing to scrape it, so WriteTextfile dumps the
// registry in the node-exporter textfile format instead.
package metrics
