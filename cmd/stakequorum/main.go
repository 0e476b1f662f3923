package main

import "github.com/quorumlab/stakequorum/internal/cli"

func main() {
	cli.Execute()
}
