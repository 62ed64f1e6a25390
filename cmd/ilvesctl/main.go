package main

import "github.com/jhoicas/ilves-api/cmd/ilvesctl/cmd"

func main() {
	cmd.Execute()
}
