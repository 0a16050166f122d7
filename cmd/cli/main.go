// Command cli is the laci operator command line.
package main

import (
	"os"

	"laci-tracker/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
