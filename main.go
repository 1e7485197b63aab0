package main

import "github.com/legalintel/counsel/cmd"

func main() {
	cmd.Execute()
}
