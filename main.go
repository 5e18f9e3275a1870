package main

import "github.com/devguard/devguard/cmd/devguard"

func main() { devguard.Execute() }
