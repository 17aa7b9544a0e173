package main

import "github.com/therocksalt/curator/internal/cli"

func main() {
	cli.Execute()
}
