package main

import "github.com/0xsysr3ll/tvtimed/cmd"

func main() {
	cmd.Execute()
}
