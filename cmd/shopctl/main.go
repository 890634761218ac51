package main

import "shop-catalog/cmd/shopctl/commands"

func main() {
	commands.Execute()
}
