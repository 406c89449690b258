package main

import "github/chapool/go-remote-wallet/cmd"

func main() {
	cmd.Execute()
}
