package main

import "cfront/cmd"

func main() {
	cmd.Execute()
}
