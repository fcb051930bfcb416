package main

import "github.com/ValentinKolb/dEntity/cmd"

func main() {
	cmd.Execute()
}
