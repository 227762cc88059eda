package main

import (
	"github.com/chainbatch/ingestor/cmd"
)

func main() {
	cmd.Execute()
}
