// Command irrigation computes daily irrigation schedules from live weather
// data and serves them to operators.
//
// Usage:
//
//	irrigation serve                 # daily trigger plus HTTP API
//	irrigation run                   # one cycle now, summary on stdout
//	irrigation migrate               # create or update the database schema
//	irrigation export -o july.xlsx --from 2024-07-01 --to 2024-08-01
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
