package main

import (
	"os"

	"github.com/lunixbochs/lazycorn/go/cmd"
)

func main() {
	os.Exit(cmd.NewLazycornCmd().Run(os.Args))
}
