package main

import (
	"github.com/mchmarny/biascheck/pkg/cli"
)

func main() {
	cli.Execute()
}
