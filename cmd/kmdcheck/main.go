// kmdcheck validates KMD files and prints one stable outcome name per
// file, making it usable from shell pipelines and CI.
package main

import (
	"flag"
	"fmt"
	"os"

	"kmd-toolkit/internal/kmd"
)

func main() {
	quiet := flag.Bool("q", false, "Only set the exit code, print nothing")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: kmdcheck [-q] <file.kmd> [...]")
		os.Exit(2)
	}

	failed := 0
	for _, arg := range flag.Args() {
		_, err := kmd.Import(arg)
		if err != nil {
			failed++
		}
		if !*quiet {
			fmt.Printf("%s: %s\n", arg, kmd.ErrorName(err))
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
