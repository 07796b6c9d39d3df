package main

import "github.com/chris/tvgrid/cmd"

func main() {
	cmd.Execute()
}
