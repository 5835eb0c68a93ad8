package main

import "internify/internal/cli"

func main() {
	cli.Execute()
}
