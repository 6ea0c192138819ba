package main

import "github.com/nhle/quest-tracker/internal/cli"

func main() {
	cli.Execute()
}
