// file: cmd/vmctl/main.go
package main

import "CTFVM/cli"

func main() {
	cli.Execute()
}
