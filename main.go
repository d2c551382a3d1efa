package main

import "github.com/BrennonTWilliams/little-loops/cmd"

func main() {
	cmd.Execute()
}
