package main

import "github.com/tech4humans/sigdet/cmd/sigdet/cmd"

func main() {
	cmd.Execute()
}
