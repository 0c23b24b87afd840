package main

import "github.com/custodia-labs/blockwatch/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
