package main

import "growthkit/cmd"

func main() {
	cmd.Execute()
}
