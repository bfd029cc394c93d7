package main

import "github.com/eaglesec/eagle-access/cmd"

func main() {
	cmd.Execute()
}
