package main

import "github.com/govoxmesh/govoxmesh/cmd"

func main() {
	cmd.Execute()
}
