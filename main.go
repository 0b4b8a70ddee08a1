package main

import (
	"github.com/jjtimmons/homa/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
