package main

import "github.com/ValentinKolb/isam/cmd"

func main() {
	cmd.Execute()
}
