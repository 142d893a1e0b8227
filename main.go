package main

import "go-foodshare/cmd"

func main() {
	cmd.Execute()
}
