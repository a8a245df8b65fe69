package main

import "appenv/internal/cli"

func main() {
	cli.Execute()
}
