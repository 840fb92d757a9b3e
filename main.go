package main

import "zetflix/cmd"

func main() {
	cmd.Execute()
}
