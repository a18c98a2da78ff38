package main

import "github.com/sd2k/webtxn/cmd/webtxn/cmd"

func main() {
	cmd.Execute()
}
