package main

import "github.com/robitlab/robit/cmd"

func main() {
	cmd.Execute()
}
