package main

import "github.com/dsh2/subsurface/cmd"

func main() {
	cmd.Execute()
}
