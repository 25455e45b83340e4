// Package main is the entry point for the clanmetrics CLI tool, which turns a
// raw clan match export into team, pair and lineup statistics.
package main

import "github.com/pable/go-clan-metrics/cmd"

func main() {
	cmd.Execute()
}
