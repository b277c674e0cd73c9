package main

import "acoustid/cmd"

func main() {
	cmd.Execute()
}
