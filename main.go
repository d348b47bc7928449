package main

import "tally/cmd"

func main() {
	cmd.Execute()
}
