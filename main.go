package main

import "libexport/cmd"

func main() {
	cmd.Execute()
}
