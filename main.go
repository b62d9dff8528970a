package main

import "github.com/codeready-toolchain/toolchain-cicd/critic-notify/cmd"

func main() {
	cmd.Execute()
}
