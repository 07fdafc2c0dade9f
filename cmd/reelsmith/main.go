package main

import "reelsmith/internal/cli"

func main() {
	cli.Execute()
}
