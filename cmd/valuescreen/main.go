// Package main - valuescreen CLI
//
// Usage:
//
//	go run ./cmd/valuescreen analyze --stock-list data/stock_list.csv
//	go run ./cmd/valuescreen screen
//	go run ./cmd/valuescreen constituents --index hs300
//	go run ./cmd/valuescreen serve
package main

import (
	"os"

	"github.com/NealChanAI/stock-investment/cmd/valuescreen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
