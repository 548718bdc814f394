package main

import "github.com/mvp-joe/dryjin/internal/cli"

func main() {
	cli.Execute()
}
