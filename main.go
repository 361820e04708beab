package main

import "github.com/KaramelBytes/mediaintel-cli/cmd"

func main() {
	cmd.Execute()
}
