// The main package for the deedcrawler executable.
package main

import "github.com/bexardata/deedcrawler/cmd"

func main() {
	cmd.Execute()
}
