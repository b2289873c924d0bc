package main

import "github.com/foodgram/backend/internal/cli"

func main() {
	cli.Execute()
}
