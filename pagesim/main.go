// Command pagesim simulates page replacement with a TLB, either once from the
// command line or as an HTTP service.
package main

import (
	"github.com/sarchlab/pagesim/pagesim/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
