package main

import "vault-bridge/cmd/bridge-cli/cmd"

func main() {
	cmd.Execute()
}
