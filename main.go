package main

import "homestead/cmd"

func main() {
	cmd.Execute()
}
