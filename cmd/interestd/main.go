/*
main.go - interestd entry point

PURPOSE:
  Runs the interestd command tree: the HTTP server plus the operator
  commands (calc, indices, import, scenarios).

EXAMPLES:
  # Serve with the default config search path
  ./interestd serve

  # Serve from a file database on another port
  INTEREST_STORE_DSN=./data/prod.db INTEREST_SERVER_PORT=3000 ./interestd serve

  # One-off calculation
  ./interestd calc compound-annual --principal 10000 --rate 12 \
      --start 2024-01-01 --end 2024-12-30

SEE ALSO:
  - cmd/interestd/cmd: Command implementations
  - config/config.go: Settings and environment variables
*/
package main

import (
	"os"

	"github.com/warp/interest-engine/cmd/interestd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
