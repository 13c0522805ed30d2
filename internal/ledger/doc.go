// Package ledger persists sweep outcomes in a SQLite database so failed
// configurations can be listed after the terminal scrollback is gone.
//
// One row is written per job per wave. A run is the set of rows sharing a
// run ID; the sweep command generates one ID per invocation.
package ledger
