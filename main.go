package main

import "github.com/ethanolivertroy/pyproject-deps/cmd"

func main() {
	cmd.Execute()
}
