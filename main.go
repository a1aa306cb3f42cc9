package main

import "captionkit/cmd"

func main() {
	cmd.Execute()
}
