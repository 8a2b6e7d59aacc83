/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/optima-medical/staffserver/cmd"

func main() {
	cmd.Execute()
}
