package main

import "cellar/internal/cli"

func main() {
	cli.Execute()
}
