package main

import (
	"os"

	"github.com/thenoetrevino/kansync/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
