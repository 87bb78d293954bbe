package main

import "stashd/internal/cmd"

func main() {
	cmd.Execute()
}
