package main

import (
	"github.com/oddmeter/oddmeter/pkg/cli"
)

func main() {
	cli.Execute()
}
