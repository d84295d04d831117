package main

import "github.com/chronotracker/chronotracker-api/cmd"

func main() {
	cmd.Execute()
}
