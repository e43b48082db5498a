package main

import "github.com/emrgen/manga/cmd"

func main() {
	cmd.Execute()
}
