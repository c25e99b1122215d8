package main

import "github.com/trackinspect/pkrec/cmd"

func main() {
	cmd.Execute()
}
