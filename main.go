package main

import "rse-auditor/cmd"

func main() {
	cmd.Execute()
}
