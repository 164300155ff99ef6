package main

import "github.com/vibast-solutions/ms-go-athlete-subscriptions/cmd"

func main() {
	cmd.Execute()
}
