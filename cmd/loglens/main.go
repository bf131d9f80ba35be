package main

import "github.com/loglens/loglens/internal/cli"

func main() {
	cli.Execute()
}
