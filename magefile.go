//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

const relayServerPackage = "./cmd/relay-server"

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	fmt.Println("[mage] exec:", cmd.String())
	return cmd.Run()
}

// All runs the test suite and then builds the binary.
func All() {
	mg.SerialDeps(Test, Build)
}

// Build compiles the relay server binary into ./bin.
func Build() error {
	return run("go", "build", "-o", "bin/relay-server", relayServerPackage)
}

// Run starts the relay server with the local environment.
func Run() error {
	return run("go", "run", relayServerPackage)
}

// Test runs the whole suite with the race detector.
func Test() error {
	return run("go", "test", "-race", "./...")
}

// Image builds the relay server docker image.
func Image() error {
	return run("docker", "build", "-t", "sketching-platform-relay-server:latest", ".")
}
