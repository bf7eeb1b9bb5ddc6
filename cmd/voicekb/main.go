package main

import "voicekb/internal/cli"

func main() {
	cli.Execute()
}
