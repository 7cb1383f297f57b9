package main

import "go-seqomd/cmd"

func main() {
	cmd.Execute()
}
