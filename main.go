package main

import (
	"os"

	"github.com/kamusis/talkrec/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
