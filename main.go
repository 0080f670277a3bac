package main

import "github.com/mpapenbr/f1-driverstats-go/cmd"

func main() {
	cmd.Execute()
}
