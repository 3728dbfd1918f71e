package main

import "radetzky/cmd"

func main() {
	cmd.Execute()
}
