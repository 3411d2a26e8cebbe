package main

import "github.com/dexprofile/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
