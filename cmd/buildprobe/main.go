package main

import "buildprobe/internal/cli"

func main() {
	cli.Execute()
}
