package main

import (
	"github.com/rsafevault/rsafe/cmd"
)

func main() {
	cmd.Execute()
}
