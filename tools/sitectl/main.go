package main

import "github.com/claryon/claryon-site/tools/sitectl/commands"

func main() {
	commands.Execute()
}
