// splatlod is a CLI for inspecting splat clouds and their LOD grids.
package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/splatlod/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(os.Stdout, args)
	case "build":
		err = cmdBuild(os.Stdout, args)
	case "select":
		err = cmdSelect(os.Stdout, args)
	case "bench":
		err = cmdBench(os.Stdout, args)
	case "gen":
		err = cmdGen(os.Stdout, args)
	case "config":
		err = cmdConfig(os.Stdout, args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`splatlod - splat cloud LOD utility

Usage:
  splatlod <command> [options]

Commands:
  info <file.ply>                     Show cloud and grid statistics
  build <file.ply>                    Build the grid and write a snapshot
  select <file.ply> -pos x,y,z        Run one selection from a camera pose
  bench [file.ply]                    Time selection along an orbit
  gen -o <file.ply>                   Write a synthetic cloud
  config [-o config.yaml]             Print or save the effective config

Every command also accepts the grid and LOD flags of splatview
(-cell-size, -max-repr, -near, -mid, -threshold, -radius, -config, ...).

Examples:
  splatlod info scene.ply
  splatlod build -cache-dir ./grids scene.ply
  splatlod select -pos 0,1.5,-4 -fx 900 scene.ply
  splatlod bench -n 200000 -frames 300
  splatlod gen -n 50000 -o synthetic.ply`)
}
