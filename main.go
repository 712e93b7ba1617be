package main

import "nathanbeddoewebdev/dcsim/cmd"

func main() {
	cmd.Execute()
}
