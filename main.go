package main

import "github.com/darmiel/polsim/cmd"

func main() {
	cmd.Execute()
}
