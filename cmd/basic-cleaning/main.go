package main

import (
	"os"

	"github.com/turbot/basic-cleaning/logging"
)

func main() {
	logging.Initialize("basic-cleaning")
	os.Exit(Execute(os.Args[1:]))
}
