package main

import "devbridge/internal/cli"

func main() {
	cli.Execute()
}
