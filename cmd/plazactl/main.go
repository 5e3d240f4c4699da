package main

import (
	"github.com/plaza-world/plaza/internal/cli"
)

func main() {
	cli.Execute()
}
