package main

import "github.com/nsyszr/toybroker/cmd"

func main() {
	cmd.Execute()
}
