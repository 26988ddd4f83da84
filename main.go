package main

import "github.com/jliuocean/oceanfv/cmd"

func main() {
	cmd.Execute()
}
