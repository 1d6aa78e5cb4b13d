package main

import "github.com/andthens/BluePrint/internal/cmd"

func main() {
	cmd.Execute()
}
