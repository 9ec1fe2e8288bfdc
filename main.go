package main

import "github.com/whatthepatch/wtp/cmd"

func main() {
	cmd.Execute()
}
